package models

// SalesReportItem represents a single row in a sales report, aggregated
// by day and optionally by menu item.
type SalesReportItem struct {
	Date          string  `json:"date,omitempty"` // YYYY-MM-DD
	ItemID        *int64  `json:"item_id,omitempty"`
	ItemName      *string `json:"item_name,omitempty"`
	TotalQuantity int     `json:"total_quantity"`
	TotalSales    float64 `json:"total_sales"`
	OrdersCount   int     `json:"orders_count"`
}

// DashboardSummary holds key metrics for the admin dashboard.
type DashboardSummary struct {
	PendingOrdersCount    int     `json:"pending_orders_count"`
	InProgressOrdersCount int     `json:"in_progress_orders_count"`
	DeliveredTodayCount   int     `json:"delivered_today_count"`
	TotalSalesToday       float64 `json:"total_sales_today"`
	TotalSalesThisWeek    float64 `json:"total_sales_this_week"`
	TotalSalesThisMonth   float64 `json:"total_sales_this_month"`
	InvoicesIssuedToday   int     `json:"invoices_issued_today"`
}

// ReportRequestParams holds common parameters for requesting reports.
type ReportRequestParams struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
	Period    string `form:"period"`     // daily, weekly, monthly, custom
	ItemID    *int64 `form:"item_id"`
}
