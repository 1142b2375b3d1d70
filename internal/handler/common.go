package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aapbuilder/backend/internal/docgen"
	"github.com/aapbuilder/backend/internal/domain"
	"github.com/aapbuilder/backend/internal/form"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/service"
	"github.com/aapbuilder/backend/internal/templateloader"
	"github.com/aapbuilder/backend/internal/trigger"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

var badRequest = []error{
	form.ErrInvalidOption,
	form.ErrUnknownCountry,
	form.ErrInvalidDate,
	form.ErrNotEditable,
	service.ErrNotTrigger,
	service.ErrUnsupportedLanguage,
	trigger.ErrMaxPhases,
	trigger.ErrMinPhases,
	trigger.ErrPhaseIndex,
	trigger.ErrUnknownField,
	trigger.ErrPhasesIncomplete,
	domain.ErrStepRange,
	domain.ErrUnknownSetting,
	domain.ErrInvalidRecord,
}

var notFound = []error{
	service.ErrFileNotFound,
	service.ErrFieldNotFound,
	service.ErrTemplateNotFound,
}

// errorStatus maps a service error to an HTTP status code.
func errorStatus(err error) int {
	for _, e := range notFound {
		if errors.Is(err, e) {
			return http.StatusNotFound
		}
	}
	for _, e := range badRequest {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	var le *templateloader.LoadError
	if errors.As(err, &le) {
		return http.StatusBadGateway
	}
	if errors.Is(err, docgen.ErrNoSchema) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		klog.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// fieldPath reads a dotted field name such as "summary.hazard".
func fieldPath(field string) (schema.Path, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, false
	}
	p := form.ParseFieldName(field)
	return p, len(p) > 0
}

// attachment sends data as a download.
func attachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
