package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/parley/pkg/utils"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("complaint: not found")

type Repository interface {
	Create(ctx context.Context, c Complaint) (*Complaint, error)
	FindByTicket(ctx context.Context, ticket string) (*Complaint, error)
}

// TicketNumber is "PKG-" followed by the last 8 digits of the unix millisecond clock.
func TicketNumber(now time.Time) string {
	ms := fmt.Sprintf("%d", now.UnixMilli())
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return "PKG-" + ms
}

// Normalize trims every text field. No field is required.
func Normalize(c *Complaint) {
	for _, f := range []*string{&c.Name, &c.Location, &c.Department, &c.Complaint, &c.TicketNumber} {
		*f = strings.TrimSpace(*f)
	}
}

type GormComplaintRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormComplaintRepo(db *gorm.DB) *GormComplaintRepo {
	return &GormComplaintRepo{db: db, now: time.Now}
}

var _ Repository = (*GormComplaintRepo)(nil)

// Create fills id, ticket and status, and stores c.
// A client supplied ticket number is kept.
func (g *GormComplaintRepo) Create(ctx context.Context, c Complaint) (*Complaint, error) {
	Normalize(&c)
	now := g.now()
	c.ID = uuid.New()
	c.CreatedAt = now
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if c.TicketNumber == "" {
		c.TicketNumber = TicketNumber(now)
	}

	var e ComplaintEntity
	e.FromDomain(c)
	if err := g.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, utils.XError{Reason: "storing complaint", Meta: err}
	}
	return e.ToDomain(), nil
}

func (g *GormComplaintRepo) FindByTicket(ctx context.Context, ticket string) (*Complaint, error) {
	var e ComplaintEntity
	err := g.db.WithContext(ctx).
		Where("ticket_number = ?", strings.TrimSpace(ticket)).
		Order("created_at DESC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, utils.XError{Reason: "loading complaint", Meta: err}
	}
	return e.ToDomain(), nil
}
