package server

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/spindle/dag"
	apperrors "github.com/kbukum/spindle/errors"
)

// DAGProvider builds the DAG as a run would see it now. Variables are
// re-read on every call.
type DAGProvider func(ctx context.Context) (*dag.DAG, error)

// DAGHandler renders the graph from provider. JSON is wrapped in the
// data envelope; ?format=yaml returns the bare pipeline document.
func DAGHandler(provider DAGProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", "json")
		if format != "json" && format != "yaml" {
			RespondWithError(c, apperrors.InvalidInput("format", "must be json or yaml"))
			return
		}

		d, err := provider(c.Request.Context())
		if err != nil {
			RespondWithError(c, err)
			return
		}
		p, err := dag.Describe(d)
		if err != nil {
			RespondWithError(c, apperrors.Internal(err))
			return
		}

		if format == "json" {
			RespondOK(c, p)
			return
		}
		var buf bytes.Buffer
		if err := p.Encode(&buf, "yaml"); err != nil {
			RespondWithError(c, apperrors.Internal(err))
			return
		}
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", buf.Bytes())
	}
}
