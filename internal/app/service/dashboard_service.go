package service

import (
	"time"

	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/pkg/logger"
)

type DashboardStats struct {
	repository.OrderStats
	TotalProducts  int64 `json:"total_products"`
	TotalCustomers int64 `json:"total_customers"`
}

type DashboardService interface {
	Stats() (*DashboardStats, error)
}

type dashboardService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	now          func() time.Time
}

func NewDashboardService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
) DashboardService {
	return &dashboardService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		now:          time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *dashboardService) Stats() (*DashboardStats, error) {
	orderStats, err := s.orderRepo.Stats(startOfDay(s.now()))
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.Count()
	if err != nil {
		return nil, err
	}

	customers, err := s.customerRepo.Count()
	if err != nil {
		return nil, err
	}

	logger.Debug("Dashboard stats computed", map[string]interface{}{
		"orders":    orderStats.TotalOrders,
		"products":  products,
		"customers": customers,
	})

	return &DashboardStats{
		OrderStats:     *orderStats,
		TotalProducts:  products,
		TotalCustomers: customers,
	}, nil
}
