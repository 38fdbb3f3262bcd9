package domain

import "time"

// AccountKind names one of the three independently ledgered identity classes.
// A user and a customer sharing an email do not share lockout state.
type AccountKind string

const (
	KindUser     AccountKind = "user"
	KindCustomer AccountKind = "customer"
	KindSeller   AccountKind = "seller"
)

type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserWithPassword struct {
	User
	PasswordHash string
}

type Customer struct {
	ID        string
	Name      string
	Email     string
	Wallet    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CustomerWithPassword struct {
	Customer
	PasswordHash string
}

type Seller struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SellerWithPassword struct {
	Seller
	PasswordHash string
}

type Product struct {
	ID          string
	SellerEmail string
	Name        string
	Price       int64
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CartItem struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
}

// AttemptRecord is one row of an attempt ledger: the failed-login counter for
// an email within a single account kind. Created lazily on the first recorded
// attempt and reset to zero only by a successful login or an expired lockout.
type AttemptRecord struct {
	Email         string
	AttemptCount  int
	LastAttemptAt time.Time
}
