package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID                int64          `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Phone             string         `db:"phone" json:"phone"`
	Email             string         `db:"email" json:"email"`
	Password          string         `db:"password" json:"-"` // bcrypt hash
	VerificationToken sql.NullString `db:"verification_token" json:"-"`
	Verified          bool           `db:"verified" json:"verified"`
	IsAdmin           bool           `db:"is_admin" json:"is_admin"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

type Store struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	Logo       string    `db:"logo" json:"logo"`
	Address    string    `db:"address" json:"address"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone"`
	WhatsApp   string    `db:"whatsapp" json:"whatsapp"`
	OrderCount int       `db:"order_count" json:"order_count"` // only filled by listing queries
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Order is written once, when a gateway payment is confirmed.
type Order struct {
	ID            int64     `db:"id" json:"id"`
	OrderID       string    `db:"order_id" json:"order_id"`               // gateway order id
	PaymentID     string    `db:"payment_id" json:"payment_id"`
	UserID        int64     `db:"user_id" json:"user_id"`                 // 0 once the user is deleted
	StoreID       int64     `db:"store_id" json:"store_id"`               // 0 once the store is deleted
	StoreName     string    `db:"store_name" json:"store_name,omitempty"` // display only
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	Address       string    `db:"address" json:"address"`
	State         string    `db:"state" json:"state"`
	Country       string    `db:"country" json:"country"`
	PinCode       string    `db:"pin_code" json:"pin_code"`
	DomainName    string    `db:"domain_name" json:"domain_name"`
	BusinessEmail string    `db:"business_email" json:"business_email"`
	ProductType   string    `db:"product_type" json:"product_type"`
	Experience    string    `db:"experience" json:"experience"`
	ProductCount  string    `db:"product_count" json:"product_count"`
	Plan          string    `db:"plan" json:"plan"`
	Amount        int64     `db:"amount" json:"amount"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	TicketOpen     = "open"
	TicketAnswered = "answered"
	TicketClosed   = "closed"
)

type Ticket struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"user_id"`
	UserEmail string        `db:"user_email" json:"user_email,omitempty"`
	Subject   string        `db:"subject" json:"subject"`
	Message   string        `db:"message" json:"message"`
	Status    string        `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	Replies   []TicketReply `db:"-" json:"replies,omitempty"`
}

type TicketReply struct {
	ID        int64     `db:"id" json:"id"`
	TicketID  int64     `db:"ticket_id" json:"ticket_id"`
	Author    string    `db:"author" json:"author"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
