package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pricing-portal/internal/identity"
	"pricing-portal/internal/models"
	"pricing-portal/internal/service"
	"pricing-portal/internal/store"
	"pricing-portal/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	admin    *service.AdminService
	identity *identity.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *service.CatalogService, admin *service.AdminService, ident *identity.Client) *Handler {
	return &Handler{
		catalog:  catalog,
		admin:    admin,
		identity: ident,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(h.optionalAuth())
	{
		v1.GET("/publications", h.listTable(models.TablePublications))
		v1.GET("/social-posts", h.listTable(models.TableSocialPosts))
		v1.GET("/digital-tv", h.listTable(models.TableDigitalTV))
		v1.GET("/best-sellers", h.listTable(models.TableBestSellers))
		v1.GET("/listicles", h.listTable(models.TableListicles))
		v1.GET("/prints", h.listTable(models.TablePrints))
		v1.GET("/broadcast-tv", h.listTable(models.TableBroadcastTV))
	}

	admin := router.Group("/api/v1/admin")
	admin.Use(h.requireAdmin())
	{
		admin.POST("/rules", h.createRule)
		admin.GET("/rules", h.listRules)
		admin.GET("/rules/:id", h.getRule)
		admin.DELETE("/rules/:id", h.deleteRule)
		admin.DELETE("/rules", h.deleteRulesForTable)

		admin.POST("/records/:table", h.createRecord)
		admin.PUT("/records/:table/:id", h.updateRecord)
		admin.DELETE("/records/:table/:id", h.deleteRecord)

		admin.GET("/users", h.listUsers)
		admin.GET("/users/:id", h.getUser)
		admin.PUT("/users/:id/role", h.updateUserRole)
		admin.DELETE("/users/:id", h.deleteUser)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listTable builds the listing handler for one inventory table.
func (h *Handler) listTable(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ctxUserID)

		listing, err := h.catalog.ListTable(c.Request.Context(), table, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to load listing",
				"details": err.Error(),
			})
			return
		}

		if listing.Fallback {
			// Snapshot is served verbatim, already JSON.
			c.Data(http.StatusOK, "application/json", listing.Raw)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"table": listing.Table,
			"rows":  listing.Rows,
		})
	}
}

// createRule handles adjustment rule creation
func (h *Handler) createRule(c *gin.Context) {
	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	rule, err := h.admin.CreateRule(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnknownTable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Failed to create rule",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// listRules handles listing rules for a table
func (h *Handler) listRules(c *gin.Context) {
	table := c.Query("table")

	rules, err := h.admin.ListRules(c.Request.Context(), table)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnknownTable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Failed to list rules",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"table": table, "rules": rules})
}

// getRule handles fetching one rule by id
func (h *Handler) getRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}

	rule, err := h.admin.GetRule(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to fetch rule",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// deleteRule handles deleting one rule by id
func (h *Handler) deleteRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule ID"})
		return
	}

	if err := h.admin.DeleteRule(c.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to delete rule",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// deleteRulesForTable handles bulk rule deletion by table name
func (h *Handler) deleteRulesForTable(c *gin.Context) {
	table := c.Query("table")

	deleted, err := h.admin.DeleteRulesForTable(c.Request.Context(), table)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnknownTable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Failed to delete rules",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"table": table, "deleted": deleted})
}

// createRecord handles inventory record creation
func (h *Handler) createRecord(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	id, err := h.admin.CreateRecord(c.Request.Context(), c.Param("table"), fields)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnknownTable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Failed to create record",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// updateRecord handles inventory record updates
func (h *Handler) updateRecord(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	err := h.admin.UpdateRecord(c.Request.Context(), c.Param("table"), c.Param("id"), fields)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnknownTable) {
			status = http.StatusBadRequest
		}
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to update record",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// deleteRecord handles inventory record deletion
func (h *Handler) deleteRecord(c *gin.Context) {
	err := h.admin.DeleteRecord(c.Request.Context(), c.Param("table"), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnknownTable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":   "Failed to delete record",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// listUsers handles listing portal users
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list users",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// getUser handles fetching one portal user by id
func (h *Handler) getUser(c *gin.Context) {
	user, err := h.admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to fetch user",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// updateUserRole handles role changes
func (h *Handler) updateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.admin.UpdateUserRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to update role",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// deleteUser handles user deletion
func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.admin.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete user",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// optionalAuth verifies a bearer token when one is present; anonymous
// callers proceed with global-only pricing.
func (h *Handler) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		ident, err := h.identity.VerifyToken(c.Request.Context(), token)
		if err != nil {
			// A bad token on a public listing degrades to anonymous pricing
			// rather than rejecting the request.
			util.IdentityVerifyFailures.Inc()
			c.Next()
			return
		}

		c.Set(ctxUserID, ident.UserID)
		c.Set(ctxRole, ident.Role)
		c.Next()
	}
}

// requireAdmin rejects callers without a valid token carrying the admin
// role.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		ident, err := h.identity.VerifyToken(c.Request.Context(), token)
		if err != nil {
			util.IdentityVerifyFailures.Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if !ident.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}

		c.Set(ctxUserID, ident.UserID)
		c.Set(ctxRole, ident.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
