package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"food-ordering-api/models"
	"food-ordering-api/statemachine"
)

// OrderService owns the order lifecycle: placement, status ladder and tracking rows.
type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

// OrderLine is one requested product and quantity. Prices always come from the product table.
type OrderLine struct {
	ProductID uint
	Quantity  int
}

type PlaceOrderInput struct {
	Items           []OrderLine
	PaymentMethod   models.PaymentMethod
	PaymentDetails  map[string]interface{}
	DeliveryAddress string
	Latitude        *float64
	Longitude       *float64
}

type PlacedOrder struct {
	OrderID uint
	Total   decimal.Decimal
}

// PlaceOrder validates the request, prices it from the product table and writes the
// order, its items, payment details, destination row and first history entry in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (*PlacedOrder, error) {
	address := strings.TrimSpace(in.DeliveryAddress)
	if err := validatePlaceOrder(in, address); err != nil {
		return nil, err
	}

	var placed PlacedOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user")
			}
			return err
		}

		items, total, err := priceLines(tx, in.Items)
		if err != nil {
			return err
		}

		order := models.Order{
			UserID:          userID,
			Total:           total,
			PaymentMethod:   in.PaymentMethod,
			Status:          models.StatusPending,
			DeliveryAddress: address,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		if details := maskPaymentDetails(in.PaymentDetails); len(details) > 0 {
			raw, err := json.Marshal(details)
			if err != nil {
				return err
			}
			payment := models.PaymentDetail{
				OrderID:       order.ID,
				PaymentMethod: in.PaymentMethod,
				Details:       datatypes.JSON(raw),
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		}

		lat, lng, ok := destinationCoordinates(in, &user)
		if ok {
			if err := s.upsertTracking(tx, order.ID, models.LocationDestination, lat, lng, address); err != nil {
				return err
			}
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: userID,
			Note:      "Order placed by customer",
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		placed = PlacedOrder{OrderID: order.ID, Total: total}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("place order: %w", err)
	}
	return &placed, nil
}

func validatePlaceOrder(in PlaceOrderInput, address string) error {
	if len(in.Items) == 0 {
		return validationError("items must not be empty")
	}
	for i, line := range in.Items {
		if line.ProductID == 0 {
			return validationError("items[%d]: product id is required", i)
		}
		if line.Quantity < 1 {
			return validationError("items[%d]: quantity must be at least 1", i)
		}
	}
	if address == "" {
		return validationError("delivery_address is required")
	}
	if !in.PaymentMethod.Valid() {
		return validationError("payment_method must be one of cod, gcash, card")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return validationError("latitude and longitude must be given together")
	}
	if in.Latitude != nil {
		if err := validateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return err
		}
	}
	return nil
}

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return validationError("latitude must be between -90 and 90")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return validationError("longitude must be between -180 and 180")
	}
	return nil
}

// priceLines resolves every line against the product table and returns the item rows and
// their exact total.
func priceLines(tx *gorm.DB, lines []OrderLine) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, decimal.Zero, validationError("product %d does not exist", line.ProductID)
		}
		price := product.Price.Round(2)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     price,
			Name:      product.Name,
		})
	}
	return items, total.Round(2), nil
}

// destinationCoordinates prefers coordinates sent with the order and falls back to the
// customer's saved location.
func destinationCoordinates(in PlaceOrderInput, user *models.User) (float64, float64, bool) {
	if in.Latitude != nil && in.Longitude != nil {
		return *in.Latitude, *in.Longitude, true
	}
	if user.HasLocation() {
		return *user.Latitude, *user.Longitude, true
	}
	return 0, 0, false
}

// cardNumberKeys are the payment detail keys that may carry a full card number.
var cardNumberKeys = []string{"card_number", "number", "cardNumber"}

// maskPaymentDetails keeps only the last four card digits and drops security codes.
func maskPaymentDetails(details map[string]interface{}) map[string]interface{} {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		out[k] = v
	}
	delete(out, "cvv")
	delete(out, "cvc")
	for _, key := range cardNumberKeys {
		v, ok := out[key]
		if !ok || v == nil {
			continue
		}
		out[key] = maskCardNumber(scalarString(v))
	}
	return out
}

// scalarString renders a decoded JSON scalar without exponent notation.
func scalarString(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		return n.String()
	default:
		return fmt.Sprint(v)
	}
}

func maskCardNumber(number string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "**** **** **** " + digits
}

// upsertTracking writes the single row for (order, location type) with one statement.
func (s *OrderService) upsertTracking(tx *gorm.DB, orderID uint, kind models.LocationType, lat, lng float64, name string) error {
	row := models.OrderTracking{
		OrderID:      orderID,
		Latitude:     lat,
		Longitude:    lng,
		LocationName: name,
		LocationType: kind,
		UpdatedAt:    s.now(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "location_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"latitude", "longitude", "location_name", "updated_at"}),
	}).Create(&row).Error
}

// StatusChange reports the outcome of AdvanceStatus.
type StatusChange struct {
	OrderID              uint               `json:"order_id"`
	PreviousStatus       models.OrderStatus `json:"previous_status"`
	CurrentStatus        models.OrderStatus `json:"current_status"`
	DestinationRefreshed bool               `json:"destination_refreshed"`
}

// AdvanceStatus moves an order to the next status on the ladder. Moving to confirmed
// refreshes the destination row from the owner's current profile location.
func (s *OrderService) AdvanceStatus(ctx context.Context, actorID, orderID uint, next models.OrderStatus) (*StatusChange, error) {
	if strings.TrimSpace(string(next)) == "" {
		return nil, validationError("new_status is required")
	}

	var change StatusChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order")
			}
			return err
		}
		if err := statemachine.CanTransition(order.Status, next); err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d changed status concurrently", ErrConflict, order.ID)
		}

		change = StatusChange{OrderID: order.ID, PreviousStatus: order.Status, CurrentStatus: next}

		if next == models.StatusConfirmed {
			var owner models.User
			if err := tx.First(&owner, order.UserID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if owner.ID != 0 && owner.HasLocation() {
				label := order.DeliveryAddress
				if owner.DeliveryAddress != nil && strings.TrimSpace(*owner.DeliveryAddress) != "" {
					label = *owner.DeliveryAddress
				}
				if err := s.upsertTracking(tx, order.ID, models.LocationDestination, *owner.Latitude, *owner.Longitude, label); err != nil {
					return err
				}
				change.DestinationRefreshed = true
			}
		}

		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   next,
			ChangedBy:  actorID,
			Note:       "Status advanced by admin",
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// UpdateCurrentLocation records the rider position for an order that is still in progress.
func (s *OrderService) UpdateCurrentLocation(ctx context.Context, orderID uint, lat, lng float64, name string) (*models.OrderTracking, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("location_name is required")
	}
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var order models.Order
	if err := db.Select("id", "status").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order")
		}
		return nil, err
	}
	if statemachine.IsTerminal(order.Status) {
		return nil, fmt.Errorf("%w: order %d is %s", ErrConflict, order.ID, order.Status)
	}

	if err := s.upsertTracking(db, order.ID, models.LocationCurrent, lat, lng, name); err != nil {
		return nil, err
	}
	var row models.OrderTracking
	if err := db.Where("order_id = ? AND location_type = ?", order.ID, models.LocationCurrent).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Destination sources for order listings.
const (
	DestinationFromProfile  = "profile"
	DestinationFromSnapshot = "snapshot"
)

// OrderWithTracking is one order row enriched with customer, tracking and line items.
type OrderWithTracking struct {
	ID                   uint               `json:"id"`
	UserID               uint               `json:"user_id"`
	Total                decimal.Decimal    `json:"-"`
	TotalText            string             `json:"total" gorm:"-"`
	PaymentMethod        string             `json:"payment_method"`
	Status               models.OrderStatus `json:"status"`
	DeliveryAddress      string             `json:"delivery_address"`
	CreatedAt            time.Time          `json:"created_at"`
	FullName             string             `json:"full_name"`
	Email                string             `json:"email"`
	CurrentLatitude      *float64           `json:"current_latitude"`
	CurrentLongitude     *float64           `json:"current_longitude"`
	CurrentLocationName  *string            `json:"current_location_name"`
	CurrentUpdatedAt     *time.Time         `json:"current_updated_at"`
	DestinationLatitude  *float64           `json:"destination_latitude"`
	DestinationLongitude *float64           `json:"destination_longitude"`
	DestinationName      *string            `json:"destination_name"`
	DestinationSource    string             `json:"destination_source" gorm:"-"`
	Items                []OrderItemView    `json:"items" gorm:"-"`
}

type OrderItemView struct {
	OrderID   uint            `json:"-"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"-"`
	PriceText string          `json:"price" gorm:"-"`
}

const orderListColumns = `o.id, o.user_id, o.total, o.payment_method, o.status, o.delivery_address, o.created_at,
	u.full_name, u.email,
	cur.latitude AS current_latitude, cur.longitude AS current_longitude,
	cur.location_name AS current_location_name, cur.updated_at AS current_updated_at`

func (s *OrderService) baseListQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("orders AS o").
		Joins("JOIN user_accounts u ON u.id = o.user_id").
		Joins("LEFT JOIN order_tracking cur ON cur.order_id = o.id AND cur.location_type = ?", models.LocationCurrent).
		Order("o.created_at DESC").Order("o.id DESC")
}

// ListOrdersForUser returns the customer's orders newest first. The destination comes from
// the customer's live profile, so it follows later profile edits.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint) ([]OrderWithTracking, error) {
	var rows []OrderWithTracking
	err := s.baseListQuery(ctx).
		Select(orderListColumns + `,
			u.latitude AS destination_latitude, u.longitude AS destination_longitude,
			u.delivery_address AS destination_name`).
		Where("o.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return s.finishListing(ctx, rows, DestinationFromProfile)
}

// ListAllOrders returns every order for the admin board, grouped by status ladder position and
// newest first inside each group. The destination is the snapshot row written at placement or
// confirmation. An empty status returns all orders.
func (s *OrderService) ListAllOrders(ctx context.Context, status models.OrderStatus) ([]OrderWithTracking, error) {
	query := s.baseListQuery(ctx).
		Select(orderListColumns+`,
			dst.latitude AS destination_latitude, dst.longitude AS destination_longitude,
			dst.location_name AS destination_name`).
		Joins("LEFT JOIN order_tracking dst ON dst.order_id = o.id AND dst.location_type = ?", models.LocationDestination)
	if status != "" {
		query = query.Where("o.status = ?", status)
	}

	var rows []OrderWithTracking
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return statemachine.Rank(rows[i].Status) < statemachine.Rank(rows[j].Status)
	})
	return s.finishListing(ctx, rows, DestinationFromSnapshot)
}

func (s *OrderService) finishListing(ctx context.Context, rows []OrderWithTracking, source string) ([]OrderWithTracking, error) {
	if rows == nil {
		rows = []OrderWithTracking{}
	}
	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
		rows[i].TotalText = models.Money(rows[i].Total)
		rows[i].DestinationSource = source
		rows[i].Items = []OrderItemView{}
	}
	if len(ids) == 0 {
		return rows, nil
	}

	var items []OrderItemView
	err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_id, product_id, name, quantity, price").
		Where("order_id IN ?", ids).
		Order("id").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	pos := make(map[uint]int, len(rows))
	for i := range rows {
		pos[rows[i].ID] = i
	}
	for _, item := range items {
		item.PriceText = models.Money(item.Price)
		i := pos[item.OrderID]
		rows[i].Items = append(rows[i].Items, item)
	}
	return rows, nil
}

// GetOrder loads one order with items, tracking rows and status history. Customers may only
// read their own orders.
func (s *OrderService) GetOrder(ctx context.Context, orderID, viewerID uint, viewerRole models.UserRole) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Tracking").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order")
		}
		return nil, err
	}
	if viewerRole != models.RoleAdmin && order.UserID != viewerID {
		return nil, fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
	}
	return &order, nil
}

// DeleteOrder removes an order and every dependent row.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("order")
			}
			return err
		}
		return deleteOrders(tx, []uint{order.ID})
	})
}

// deleteOrders removes the given orders and their dependents inside tx.
func deleteOrders(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	dependents := []interface{}{
		&models.OrderTracking{},
		&models.PaymentDetail{},
		&models.OrderStatusHistory{},
		&models.OrderItem{},
	}
	for _, model := range dependents {
		if err := tx.Where("order_id IN ?", ids).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Order{}).Error
}
