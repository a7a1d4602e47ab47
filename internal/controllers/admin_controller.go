package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"loadtrack/internal/config"
	"loadtrack/internal/models"
	"loadtrack/internal/photos"
	"loadtrack/internal/registry"
)

// --- Load review ---

// AdminListLoads returns a paginated, filterable view of all loads for the
// review console. Filters: search (load/pickup/order number), status,
// customer, driver_id.
func AdminListLoads(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 25
	}

	q := config.DB.Model(&models.Load{}).Preload("Driver")
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"LOWER(load_number) LIKE ? OR LOWER(pickup_number) LIKE ? OR LOWER(order_number) LIKE ?",
			like, like, like,
		)
	}
	if status := c.Query("status"); status != "" {
		if !models.LoadStatus(status).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		q = q.Where("status = ?", status)
	}
	if customer := strings.TrimSpace(c.Query("customer")); customer != "" {
		q = q.Where("LOWER(customer_name) = LOWER(?)", customer)
	}
	if driverID := c.Query("driver_id"); driverID != "" {
		q = q.Where("driver_id = ?", driverID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var loads []models.Load
	if err := q.Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&loads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(loads))
	for i := range loads {
		l := &loads[i]
		out = append(out, gin.H{
			"load_id":       l.ID,
			"load_number":   l.LoadNumber,
			"pickup_number": l.PickupNumber,
			"order_number":  l.OrderNumber,
			"customer_name": l.CustomerName,
			"driver_name":   l.Driver.Name,
			"status":        l.Status,
			"created_at":    l.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"loads":     out,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

// AdminGetLoad returns the full load record including email histories and
// every stored photo, for the review detail page.
func AdminGetLoad(c *gin.Context) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid load ID format"})
		return
	}

	var load models.Load
	if err := config.DB.Preload("Driver").First(&load, uint(loadID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Load not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stored, err := Ledger.List(load.ID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	fileMap := map[models.PhotoCategory][]photos.PhotoRef{}
	for _, p := range stored {
		fileMap[p.Category] = append(fileMap[p.Category], photos.PhotoRef{ID: p.ID, URL: Media.URLFor(p.StoredKey)})
	}

	c.JSON(http.StatusOK, gin.H{
		"load":   load,
		"driver": gin.H{"id": load.Driver.ID, "name": load.Driver.Name, "phone": load.Driver.Phone, "company": load.Driver.Company},
		"files":  fileMap,
	})
}

// --- CSV export / import ---

type loadCSVRow struct {
	LoadID           uint   `csv:"load_id"`
	LoadNumber       string `csv:"load_number"`
	PickupNumber     string `csv:"pickup_number"`
	OrderNumber      string `csv:"order_number"`
	DeliveryNumber   string `csv:"delivery_number"`
	CustomerName     string `csv:"customer_name"`
	DriverName       string `csv:"driver_name"`
	DriverCompany    string `csv:"driver_company"`
	TruckNumber      string `csv:"truck_number"`
	TrailerNumber    string `csv:"trailer_number"`
	EquipmentType    string `csv:"equipment_type"`
	SealNumber       string `csv:"seal_number"`
	Status           string `csv:"status"`
	PickupDatetime   string `csv:"pickup_datetime"`
	DeliveryDatetime string `csv:"delivery_datetime"`
	PickupEmails     string `csv:"pickup_emails"`
	DeliveryEmails   string `csv:"delivery_emails"`
	PhotoCount       int    `csv:"photo_count"`
	CreatedAt        string `csv:"created_at"`
}

func formatCSVTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func flattenHistory(history models.EmailHistory) string {
	parts := make([]string, 0, len(history))
	for _, rec := range history {
		parts = append(parts, fmt.Sprintf("%s %s to %s",
			rec.Timestamp, rec.Status, strings.Join(rec.Recipients, ";")))
	}
	return strings.Join(parts, " | ")
}

// AdminExportLoads streams every load (honoring the list filters) as CSV.
func AdminExportLoads(c *gin.Context) {
	q := config.DB.Model(&models.Load{}).Preload("Driver").Preload("Photos")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if customer := strings.TrimSpace(c.Query("customer")); customer != "" {
		q = q.Where("LOWER(customer_name) = LOWER(?)", customer)
	}

	var loads []models.Load
	if err := q.Order("id").Find(&loads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows := make([]loadCSVRow, 0, len(loads))
	for i := range loads {
		l := &loads[i]
		rows = append(rows, loadCSVRow{
			LoadID:           l.ID,
			LoadNumber:       l.LoadNumber,
			PickupNumber:     l.PickupNumber,
			OrderNumber:      l.OrderNumber,
			DeliveryNumber:   l.DeliveryNumber,
			CustomerName:     l.CustomerName,
			DriverName:       l.Driver.Name,
			DriverCompany:    l.Driver.Company,
			TruckNumber:      l.TruckNumber,
			TrailerNumber:    l.TrailerNumber,
			EquipmentType:    string(l.EquipmentType),
			SealNumber:       l.SealNumber,
			Status:           string(l.Status),
			PickupDatetime:   formatCSVTime(l.PickupDatetime),
			DeliveryDatetime: formatCSVTime(l.DeliveryDatetime),
			PickupEmails:     flattenHistory(l.PickupEmailHistory),
			DeliveryEmails:   flattenHistory(l.DeliveryEmailHistory),
			PhotoCount:       len(l.Photos),
			CreatedAt:        l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	csvText, err := gocsv.MarshalString(&rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := "loads_" + time.Now().UTC().Format("20060102_150405") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(csvText))
}

type companyCSVRow struct {
	Company       string `csv:"company"`
	CompanyEmail  string `csv:"company_email"`
	SCACCode      string `csv:"scac_code"`
	CustomerName  string `csv:"customer_name"`
	CustomerEmail string `csv:"customer_email"`
}

// AdminImportCompanies bulk-loads companies and customers from an uploaded
// CSV. Rows are upserted by company name, then by customer name within the
// company; a row with an empty customer_name seeds just the company.
func AdminImportCompanies(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required (field: file)"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not open uploaded file"})
		return
	}
	defer f.Close()

	var rows []companyCSVRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CSV: " + err.Error()})
		return
	}

	companies, customers := 0, 0
	for _, row := range rows {
		name := strings.TrimSpace(row.Company)
		if name == "" {
			continue
		}

		var company models.Company
		err := config.DB.Where("LOWER(name) = LOWER(?)", name).First(&company).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			company = models.Company{
				Name:     name,
				Email:    strings.TrimSpace(row.CompanyEmail),
				SCACCode: strings.TrimSpace(row.SCACCode),
			}
			if err := config.DB.Create(&company).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			companies++
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		custName := strings.TrimSpace(row.CustomerName)
		if custName == "" {
			continue
		}
		var customer models.Customer
		err = config.DB.Where("company_id = ? AND LOWER(name) = LOWER(?)", company.ID, custName).
			First(&customer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			customer = models.Customer{
				CompanyID: company.ID,
				Name:      custName,
				Email:     strings.TrimSpace(row.CustomerEmail),
			}
			if err := config.DB.Create(&customer).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			customers++
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Import completed",
		"companies_created": companies,
		"customers_created": customers,
	})
}

// --- Company / customer management ---

// AdminListCompanies lists companies with their customers.
func AdminListCompanies(c *gin.Context) {
	var companies []models.Company
	if err := config.DB.Preload("Customers").Order("name").Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// AdminCreateCompany registers a carrier.
func AdminCreateCompany(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email"`
		SCACCode string `json:"scac_code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company := models.Company{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		SCACCode: strings.TrimSpace(input.SCACCode),
	}
	if err := config.DB.Create(&company).Error; err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "company name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Company created successfully", "company": company})
}

// AdminCreateCustomer adds an email-delivery target under a company.
func AdminCreateCustomer(c *gin.Context) {
	var input struct {
		CompanyID uint   `json:"company_id" binding:"required"`
		Name      string `json:"name" binding:"required"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var company models.Company
	if err := config.DB.First(&company, input.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	customer := models.Customer{
		CompanyID: company.ID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
	}
	if err := config.DB.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Customer created successfully", "customer": customer})
}

// AdminDeleteCustomer removes a delivery target.
func AdminDeleteCustomer(c *gin.Context) {
	customerID, err := strconv.ParseUint(c.Param("customerId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID format"})
		return
	}
	res := config.DB.Delete(&models.Customer{}, uint(customerID))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// AdminResendReport re-runs a report send for a load, e.g. after fixing a
// customer email address. Uses the same confirmed-send flow as the driver
// endpoints, so a load already past the milestone is rejected.
func AdminResendReport(c *gin.Context) {
	switch c.Query("channel") {
	case "pickup":
		sendReportEmail(c, registry.ChannelPickup)
	case "delivery":
		sendReportEmail(c, registry.ChannelDelivery)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be pickup or delivery"})
	}
}
