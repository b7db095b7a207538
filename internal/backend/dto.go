package backend

// Wire shapes of the backend services. Amounts travel as JSON numbers and
// are converted to decimals at this boundary.

type productDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	UserID      string  `json:"user_id"`
}

// cartDTO mirrors the shopping service's untagged Go struct
type cartDTO struct {
	UserID string        `json:"UserID"`
	Items  []cartItemDTO `json:"Items"`
}

type cartItemDTO struct {
	ProductID string `json:"ProductID"`
	Qty       int    `json:"Qty"`
}

type cartQuantityRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type checkoutItemDTO struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

type deliveryInfoDTO struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Street        string `json:"street"`
	HouseNumber   string `json:"house_number"`
	PostalCode    string `json:"postal_code"`
	City          string `json:"city"`
	Floor         string `json:"floor,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}

type checkoutRequest struct {
	UserID       string            `json:"user_id"`
	Items        []checkoutItemDTO `json:"items"`
	TotalAmount  float64           `json:"total_amount"`
	Currency     string            `json:"currency"`
	OrderType    string            `json:"order_type"`
	DeliveryInfo *deliveryInfoDTO  `json:"delivery_info,omitempty"`
}

type checkoutResponse struct {
	Status      string  `json:"status"`
	OrderID     string  `json:"order_id"`
	OrderType   string  `json:"order_type"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	CreatedAt   string  `json:"created_at"`
}

type paymentRequest struct {
	OrderID        string            `json:"order_id"`
	UserID         string            `json:"user_id"`
	Provider       string            `json:"provider"`
	Amount         float64           `json:"amount"`
	Currency       string            `json:"currency"`
	PaymentDetails map[string]string `json:"payment_details"`
}

type paymentResponse struct {
	ID       string  `json:"id"`
	Provider string  `json:"provider"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}
