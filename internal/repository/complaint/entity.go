package complaint

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

type Complaint struct {
	ID           uuid.UUID `json:"id"`
	TicketNumber string    `json:"ticketNumber"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Department   string    `json:"department"`
	Complaint    string    `json:"complaint"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ComplaintEntity struct {
	ID           uuid.UUID `gorm:"primaryKey;type:char(36);not null"`
	TicketNumber string    `gorm:"type:varchar(64);index;not null"`
	Name         string    `gorm:"type:varchar(255)"`
	Location     string    `gorm:"type:varchar(255)"`
	Department   string    `gorm:"type:varchar(255)"`
	Complaint    string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(16);default:open"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ComplaintEntity) TableName() string { return "complaints" }

func (e *ComplaintEntity) FromDomain(c Complaint) {
	e.ID = c.ID
	e.TicketNumber = c.TicketNumber
	e.Name = c.Name
	e.Location = c.Location
	e.Department = c.Department
	e.Complaint = c.Complaint
	e.Status = string(c.Status)
	e.CreatedAt = c.CreatedAt
}

func (e *ComplaintEntity) ToDomain() *Complaint {
	return &Complaint{
		ID:           e.ID,
		TicketNumber: e.TicketNumber,
		Name:         e.Name,
		Location:     e.Location,
		Department:   e.Department,
		Complaint:    e.Complaint,
		Status:       Status(e.Status),
		CreatedAt:    e.CreatedAt,
	}
}
