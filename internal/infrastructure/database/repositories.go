package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Atik203/Scholar-Flow-sub001/internal/adapter/repository"
	domainRepo "github.com/Atik203/Scholar-Flow-sub001/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Plan         repository.PlanRepository
	Subscription domainRepo.SubscriptionRepository
	Payment      domainRepo.PaymentRepository
	CustomerLink domainRepo.CustomerLinkRepository
	UserRole     domainRepo.UserRoleRepository
	Webhook      repository.WebhookRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Plan:         repository.NewPlanRepository(db, logger),
		Subscription: repository.NewSubscriptionRepository(db, logger),
		Payment:      repository.NewPaymentRepository(db, logger),
		CustomerLink: repository.NewCustomerLinkRepository(db, logger),
		UserRole:     repository.NewUserRoleRepository(db, logger),
		Webhook:      repository.NewWebhookRepository(db, logger),
	}
}
