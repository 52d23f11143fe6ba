package usecase

// Published on Kafka for every fulfillment-status transition.
type OrderStatusChangedMsg struct {
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// Queued on RabbitMQ when a payment is approved; drained by the mailer worker.
type OrderConfirmedMsg struct {
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	TotalCents    int64  `json:"totalCents"`
	PaymentMethod string `json:"paymentMethod"`
}
