package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pcb_bistro_backend/internal/database"
	"pcb_bistro_backend/internal/models"

	"github.com/gin-gonic/gin"
)

const DefaultReportDateLayout = "2006-01-02"

// parseReportRequestParams helps parse common query parameters for reports.
func parseReportRequestParams(c *gin.Context) models.ReportRequestParams {
	var params models.ReportRequestParams
	params.StartDate = c.Query("start_date")
	params.EndDate = c.Query("end_date")
	params.Period = c.Query("period") // daily, weekly, monthly

	if itemIDStr := c.Query("item_id"); itemIDStr != "" {
		if id, err := strconv.ParseInt(itemIDStr, 10, 64); err == nil {
			params.ItemID = &id
		}
	}
	return params
}

// GetDashboardSummary provides a summary of key metrics for the dashboard.
func GetDashboardSummary(c *gin.Context) {
	db := database.GetDB()
	var summary models.DashboardSummary
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)

	startOfWeek := startOfDay.AddDate(0, 0, -int(startOfDay.Weekday())+1) // Monday start
	if startOfDay.Weekday() == time.Sunday {
		startOfWeek = startOfDay.AddDate(0, 0, -6)
	}
	endOfWeek := startOfWeek.AddDate(0, 0, 7).Add(-time.Nanosecond)

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endOfMonth := startOfMonth.AddDate(0, 1, 0).Add(-time.Nanosecond)

	// Pending Orders Count
	err := db.QueryRow(`SELECT COUNT(*) FROM orders WHERE status = 'PENDING'`).Scan(&summary.PendingOrdersCount)
	if err != nil && err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get pending orders count: " + err.Error()})
		return
	}

	// Orders currently being worked on
	err = db.QueryRow(`SELECT COUNT(*) FROM orders WHERE status IN ('CONFIRMED', 'PREPARING', 'READY', 'OUT_FOR_DELIVERY')`).Scan(&summary.InProgressOrdersCount)
	if err != nil && err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get in-progress orders count: " + err.Error()})
		return
	}

	// Delivered Today Count
	err = db.QueryRow(`SELECT COUNT(*) FROM orders WHERE status = 'DELIVERED' AND delivered_at BETWEEN $1 AND $2`, startOfDay, endOfDay).Scan(&summary.DeliveredTodayCount)
	if err != nil && err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get delivered orders count: " + err.Error()})
		return
	}

	// Total Sales Today
	err = db.QueryRow(`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = 'DELIVERED' AND created_at BETWEEN $1 AND $2`, startOfDay, endOfDay).Scan(&summary.TotalSalesToday)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get total sales today: " + err.Error()})
		return
	}

	// Total Sales This Week
	err = db.QueryRow(`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = 'DELIVERED' AND created_at BETWEEN $1 AND $2`, startOfWeek, endOfWeek).Scan(&summary.TotalSalesThisWeek)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get total sales this week: " + err.Error()})
		return
	}

	// Total Sales This Month
	err = db.QueryRow(`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = 'DELIVERED' AND created_at BETWEEN $1 AND $2`, startOfMonth, endOfMonth).Scan(&summary.TotalSalesThisMonth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get total sales this month: " + err.Error()})
		return
	}

	// Invoices Issued Today
	err = db.QueryRow(`SELECT COUNT(*) FROM invoices WHERE created_at BETWEEN $1 AND $2`, startOfDay, endOfDay).Scan(&summary.InvoicesIssuedToday)
	if err != nil && err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get invoices issued count: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetSalesReports generates sales reports based on query parameters.
func GetSalesReports(c *gin.Context) {
	params := parseReportRequestParams(c)
	db := database.GetDB()

	var queryBuilder strings.Builder
	args := []interface{}{}
	argIdx := 1

	queryBuilder.WriteString(`
		SELECT
			TO_CHAR(o.created_at, $` + strconv.Itoa(argIdx) + `) as report_date,
			oi.menu_item_id,
			oi.item_name,
			SUM(oi.quantity) as total_quantity,
			SUM(oi.total_price) as total_sales,
			COUNT(DISTINCT o.id) as orders_count
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		WHERE o.status = 'DELIVERED'
	`)

	dateFormat := "YYYY-MM-DD" // Default daily
	switch params.Period {
	case "weekly":
		dateFormat = "IYYY-IW" // ISO Year and Week number
	case "monthly":
		dateFormat = "YYYY-MM"
	}
	args = append(args, dateFormat)
	argIdx++

	if params.StartDate != "" {
		queryBuilder.WriteString(" AND o.created_at >= $" + strconv.Itoa(argIdx))
		args = append(args, params.StartDate)
		argIdx++
	}
	if params.EndDate != "" {
		// Adjust end date to include the whole day
		endDateParsed, err := time.Parse(DefaultReportDateLayout, params.EndDate)
		if err == nil {
			endDateAdjusted := endDateParsed.AddDate(0, 0, 1).Format(DefaultReportDateLayout)
			queryBuilder.WriteString(" AND o.created_at < $" + strconv.Itoa(argIdx))
			args = append(args, endDateAdjusted)
			argIdx++
		} else {
			queryBuilder.WriteString(" AND o.created_at <= $" + strconv.Itoa(argIdx))
			args = append(args, params.EndDate)
			argIdx++
		}
	}
	if params.ItemID != nil {
		queryBuilder.WriteString(" AND oi.menu_item_id = $" + strconv.Itoa(argIdx))
		args = append(args, *params.ItemID)
		argIdx++
	}

	queryBuilder.WriteString(" GROUP BY report_date, oi.menu_item_id, oi.item_name")
	queryBuilder.WriteString(" ORDER BY report_date DESC, total_sales DESC")

	rows, err := db.Query(queryBuilder.String(), args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query sales report: " + err.Error()})
		return
	}
	defer rows.Close()

	reportItems := []models.SalesReportItem{}
	for rows.Next() {
		var item models.SalesReportItem
		var itemID sql.NullInt64
		if err := rows.Scan(
			&item.Date,
			&itemID,
			&item.ItemName,
			&item.TotalQuantity,
			&item.TotalSales,
			&item.OrdersCount,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan sales report item: " + err.Error()})
			return
		}
		if itemID.Valid {
			id := itemID.Int64
			item.ItemID = &id
		}
		reportItems = append(reportItems, item)
	}

	c.JSON(http.StatusOK, reportItems)
}
