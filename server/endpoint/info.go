package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/spindle/version"
)

var startTime = time.Now()

// Info reports the build of the running binary and the DAG it serves.
func Info(serviceName, dagID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"dag_id":     dagID,
			"version":    v.Short(),
			"git_commit": v.GitCommit,
			"go_version": v.GoVersion,
			"release":    v.IsRelease(),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		})
	}
}
