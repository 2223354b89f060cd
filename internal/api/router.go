package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"ac-maintenance-backend/config"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/mw"
)

// NewRouter creates and configures the gin engine with every route.
func NewRouter(d Deps, cfg config.ServerConfig) *gin.Engine {
	h := NewHandler(d)

	r := gin.New()
	r.Use(mw.Recovery(h.logger), mw.RequestID(), mw.Logger(h.logger.Named("http")))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", mw.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst))

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)
	r.Use(mw.FlushOnWrite(cacheStore))

	loginBurst := int(cfg.LoginRatePerMin)
	if loginBurst < 1 {
		loginBurst = 1
	}
	loginLimiter := mw.RateLimiter(rate.Limit(cfg.LoginRatePerMin/60), loginBurst)

	r.GET("/healthz", h.Health)
	r.GET("/vapid_public_key", h.GetVAPIDPublicKey)

	// public auth
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/init", loginLimiter, h.InitSystem)
		authGroup.POST("/register", loginLimiter, h.Register)
		authGroup.POST("/login", loginLimiter, h.Login)
	}

	protected := r.Group("")
	protected.Use(mw.Authenticate(h.auth, h.store))

	protected.GET("/auth/me", h.Me)
	protected.GET("/user/me", h.Me)
	protected.POST("/users", mw.Require(auth.ActionManageUsers), h.CreateUser)
	protected.GET("/users", mw.Require(auth.ActionManageUsers), h.ListUsers)

	manageRef := mw.Require(auth.ActionManageReference)
	gen := protected.Group("/gen")
	{
		gen.GET("/divisions", caching, h.ListDivisions)
		gen.GET("/divisions/:id", h.GetDivision)
		gen.POST("/divisions", manageRef, h.CreateDivision)
		gen.PUT("/divisions/:id", manageRef, h.RenameDivision)
		gen.DELETE("/divisions/:id", manageRef, h.DeleteDivision)

		gen.GET("/subdivisions", caching, h.ListSubdivisions)
		gen.GET("/subdivisions/:id", h.GetSubdivision)
		gen.GET("/subdivisions/by_division/:id", caching, h.SubdivisionsByDivision)
		gen.POST("/subdivisions", manageRef, h.CreateSubdivision)
		gen.PUT("/subdivisions/:id", manageRef, h.RenameSubdivision)
		gen.DELETE("/subdivisions/:id", manageRef, h.DeleteSubdivision)

		gen.GET("/stations", caching, h.ListStations)
		gen.GET("/stations/by_subdivision/:id", caching, h.StationsBySubdivision)
		gen.POST("/stations", manageRef, h.CreateStation)
		gen.PUT("/stations/:id", manageRef, h.RenameStation)
		gen.DELETE("/stations/:id", manageRef, h.DeleteStation)

		gen.GET("/makes", caching, h.ListMakes)
		gen.POST("/makes", manageRef, h.CreateMake)
		gen.PUT("/makes/:id", manageRef, h.RenameMake)
		gen.DELETE("/makes/:id", manageRef, h.DeleteMake)

		gen.GET("/capacities", caching, h.ListCapacities)
		gen.POST("/capacities", manageRef, h.CreateCapacity)
		gen.DELETE("/capacities/:id", manageRef, h.DeleteCapacity)

		gen.GET("/refrigerants", caching, h.ListRefrigerants)
		gen.POST("/refrigerants", manageRef, h.CreateRefrigerant)
		gen.DELETE("/refrigerants/:id", manageRef, h.DeleteRefrigerant)

		gen.GET("/airconditioners/by_station/:id", mw.Require(auth.ActionViewAssets), h.ACsByStation)
		gen.GET("/airconditioners/by_subdivision/:id", mw.Require(auth.ActionViewAssets), h.ACsBySubdivision)

		gen.GET("/dashboard/subdivision/:id", mw.Require(auth.ActionViewReports), h.SubdivisionDashboard)
		gen.GET("/dashboard/division/:id", mw.RequireRole(model.RoleAdmin), h.DivisionDashboard)
	}

	viewAssets := mw.Require(auth.ActionViewAssets)
	manageAssets := mw.Require(auth.ActionManageAssets)
	record := mw.Require(auth.ActionRecordMaintenance)
	divisionReports := mw.Require(auth.ActionViewDivisionReports)
	ac := protected.Group("/ac")
	{
		ac.POST("/maintenance/", record, h.CreateMaintenance)
		ac.GET("/maintenance", viewAssets, h.ListMaintenance)
		ac.GET("/maintenance/:id", viewAssets, h.GetMaintenance)
		ac.PATCH("/maintenance/:id", record, h.UpdateMaintenance)
		ac.POST("/maintenance/:id/complete", record, h.CompleteMaintenance)
		ac.POST("/maintenance/:id/parts", record, h.AddParts)
		ac.DELETE("/maintenance/:id", mw.Require(auth.ActionDeleteMaintenance), h.DeleteMaintenance)
		ac.GET("/overdue", viewAssets, h.ListOverdue)
		ac.GET("/maintenance_dates", viewAssets, h.ListDueWindows)

		ac.GET("/acs", viewAssets, h.ListAirConditioners)
		ac.GET("/all-ac", viewAssets, h.ListAirConditioners)
		ac.GET("/acs/:id", viewAssets, h.GetAirConditioner)
		ac.POST("/acs", manageAssets, h.CreateAirConditioner)
		ac.PUT("/acs/:id", manageAssets, h.UpdateAirConditioner)
		ac.DELETE("/acs/:id", manageAssets, h.DeleteAirConditioner)
		ac.POST("/acs/:id/recompute", mw.RequireRole(model.RoleAdmin), h.RecomputeAsset)
		ac.GET("/:id/maintenance-summary", viewAssets, h.MaintenanceSummary)
		ac.GET("/:id/maintenance-detailed", viewAssets, h.MaintenanceDetailed)

		ac.GET("/dropdowndata", caching, h.DropdownData)
		ac.GET("/dashboard", viewAssets, h.ACDashboard)

		ac.GET("/reports/division/:id", divisionReports, h.DivisionStatusReport)
		ac.GET("/reports/division/:id/export", divisionReports, h.ExportDivision)
		ac.GET("/reports/divisional/:id", divisionReports, h.DivisionalDueReport)

		ac.GET("/maintainers", viewAssets, h.ListMaintainers)
		ac.GET("/maintainers/:id", viewAssets, h.GetMaintainer)
		ac.POST("/maintainers", manageAssets, h.CreateMaintainer)
		ac.DELETE("/maintainers/:id", manageAssets, h.DeleteMaintainer)

		ac.GET("/checklist-items", caching, h.ListChecklistItems)
		ac.POST("/checklist-items", manageRef, h.CreateChecklistItem)
		ac.DELETE("/checklist-items/:id", manageRef, h.DeleteChecklistItem)
	}

	manageFleet := mw.Require(auth.ActionManageFleet)
	viewFleet := mw.Require(auth.ActionViewFleet)
	recordService := mw.Require(auth.ActionRecordService)
	vehicles := protected.Group("/vehicles")
	{
		vehicles.POST("", manageFleet, h.CreateVehicle)
		vehicles.GET("", viewFleet, h.ListVehicles)
		vehicles.GET("/:id", viewFleet, h.GetVehicle)
		vehicles.GET("/:id/transfers", manageFleet, h.ListTransfers)
		vehicles.POST("/:id/assign", manageFleet, h.AssignVehicle)
		vehicles.POST("/transfer", manageFleet, h.TransferVehicle)
		vehicles.POST("/run", mw.Require(auth.ActionReportRun), h.RecordRun)
		vehicles.POST("/service", recordService, h.RecordService)
		vehicles.DELETE("/service/:id", recordService, h.DeleteServiceRecord)
	}

	fleetReports := protected.Group("/reports", mw.Require(auth.ActionViewFleetReports))
	{
		fleetReports.GET("/vehicle/:id/total_minutes", h.VehicleTotalMinutes)
		fleetReports.GET("/comparative", h.ComparativeVehicles)
		fleetReports.GET("/fleet-due", h.FleetDue)
	}

	subscribe := mw.Require(auth.ActionSubscribeAlerts)
	protected.GET("/subscriptions", subscribe, h.GetSubscription)
	protected.PUT("/subscriptions", subscribe, h.PutSubscription)
	protected.DELETE("/subscriptions", subscribe, h.DeleteSubscription)

	return r
}

// Health pings the database.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
