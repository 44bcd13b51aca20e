package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/olehkozhan/contactbook/pkg/errors"
	"github.com/olehkozhan/contactbook/pkg/response"
)

// Health reports liveness and database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, errors.Wrap(err, "database unreachable"))
			return
		}

		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
