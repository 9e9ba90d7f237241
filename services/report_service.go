package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"food-ordering-api/models"
)

// ReportService aggregates sales for the admin dashboard. Canceled orders never count as sales.
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

const (
	ViewWeekly  = "weekly"
	ViewMonthly = "monthly"
)

type DailySales struct {
	Date   string `json:"date"`
	Sales  string `json:"sales"`
	Orders int64  `json:"orders"`
}

type DashboardStats struct {
	View          string       `json:"view"`
	TotalSales    string       `json:"total_sales"`
	TotalOrders   int64        `json:"total_orders"`
	PendingOrders int64        `json:"pending_orders"`
	Series        []DailySales `json:"series"`
}

type salesTotal struct {
	Sales  decimal.Decimal
	Orders int64
}

func (s *ReportService) salesSince(ctx context.Context, since *time.Time) (salesTotal, error) {
	var out salesTotal
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS sales, COUNT(*) AS orders").
		Where("status <> ?", models.StatusCanceled)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	err := query.Scan(&out).Error
	return out, err
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Stats returns overall totals and a zero-filled per-day series for the last 7 or 30 days.
func (s *ReportService) Stats(ctx context.Context, view string) (*DashboardStats, error) {
	days := 0
	switch view {
	case "", ViewWeekly:
		view, days = ViewWeekly, 7
	case ViewMonthly:
		days = 30
	default:
		return nil, validationError("view must be weekly or monthly")
	}

	totals, err := s.salesSince(ctx, nil)
	if err != nil {
		return nil, err
	}
	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.StatusPending).Count(&pending).Error; err != nil {
		return nil, err
	}

	since := startOfDay(s.now()).AddDate(0, 0, -(days - 1))
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Select("id", "total", "created_at").
		Where("status <> ? AND created_at >= ?", models.StatusCanceled, since).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	// bucket in Go so the same code runs on sqlite and postgres date semantics
	type bucket struct {
		sales  decimal.Decimal
		orders int64
	}
	buckets := make(map[string]*bucket, days)
	series := make([]DailySales, days)
	for i := 0; i < days; i++ {
		key := since.AddDate(0, 0, i).Format("2006-01-02")
		buckets[key] = &bucket{sales: decimal.Zero}
		series[i].Date = key
	}
	for _, o := range orders {
		key := o.CreatedAt.In(since.Location()).Format("2006-01-02")
		if b, ok := buckets[key]; ok {
			b.sales = b.sales.Add(o.Total)
			b.orders++
		}
	}
	for i := range series {
		b := buckets[series[i].Date]
		series[i].Sales = models.Money(b.sales)
		series[i].Orders = b.orders
	}

	return &DashboardStats{
		View:          view,
		TotalSales:    models.Money(totals.Sales),
		TotalOrders:   totals.Orders,
		PendingOrders: pending,
		Series:        series,
	}, nil
}

type SalesSummary struct {
	DailySales   string `json:"daily_sales"`
	MonthlySales string `json:"monthly_sales"`
	YearlySales  string `json:"yearly_sales"`
	TotalSales   string `json:"total_sales"`
}

type TopItem struct {
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"total_quantity"`
	Revenue       decimal.Decimal `json:"-"`
	RevenueText   string          `json:"revenue" gorm:"-"`
}

type RecentOrder struct {
	ID        uint               `json:"id"`
	FullName  *string            `json:"full_name"`
	Total     decimal.Decimal    `json:"-"`
	TotalText string             `json:"total" gorm:"-"`
	Status    models.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

type SalesReport struct {
	Summary      SalesSummary  `json:"summary"`
	TopItems     []TopItem     `json:"topItems"`
	RecentOrders []RecentOrder `json:"recentOrders"`
}

const (
	topItemsLimit     = 5
	recentOrdersLimit = 10
)

// SalesReport returns revenue for today, this month, this year and all time, the best
// selling products and the latest orders.
func (s *ReportService) SalesReport(ctx context.Context) (*SalesReport, error) {
	now := s.now()
	day := startOfDay(now)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	var summary SalesSummary
	windows := []struct {
		since *time.Time
		dst   *string
	}{
		{&day, &summary.DailySales},
		{&month, &summary.MonthlySales},
		{&year, &summary.YearlySales},
		{nil, &summary.TotalSales},
	}
	for _, w := range windows {
		total, err := s.salesSince(ctx, w.since)
		if err != nil {
			return nil, err
		}
		*w.dst = models.Money(total.Sales)
	}

	top := []TopItem{}
	err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select(`order_items.product_id, MAX(order_items.name) AS name,
			SUM(order_items.quantity) AS total_quantity,
			SUM(order_items.price * order_items.quantity) AS revenue`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", models.StatusCanceled).
		Group("order_items.product_id").
		Order("total_quantity DESC").Order("order_items.product_id").
		Limit(topItemsLimit).
		Scan(&top).Error
	if err != nil {
		return nil, err
	}
	for i := range top {
		top[i].RevenueText = models.Money(top[i].Revenue)
	}

	recent := []RecentOrder{}
	err = s.db.WithContext(ctx).Table("orders AS o").
		Select("o.id, u.full_name, o.total, o.status, o.created_at").
		Joins("LEFT JOIN user_accounts u ON u.id = o.user_id").
		Order("o.created_at DESC").Order("o.id DESC").
		Limit(recentOrdersLimit).
		Scan(&recent).Error
	if err != nil {
		return nil, err
	}
	for i := range recent {
		recent[i].TotalText = models.Money(recent[i].Total)
	}

	return &SalesReport{Summary: summary, TopItems: top, RecentOrders: recent}, nil
}
