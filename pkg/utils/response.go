// en pkg/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
	// Code    string `json:"code,omitempty"` // Opcional: un código de error interno
}

// PageMeta acompaña a cada página de resultados.
type PageMeta struct {
	CurrentPage int    `json:"currentPage,omitempty"`
	PageSize    int    `json:"pageSize"`
	Total       int64  `json:"total"`
	PageCount   int    `json:"pageCount,omitempty"`
	HasNext     bool   `json:"hasNext"`
	HasPrev     bool   `json:"hasPrev"`
	Next        string `json:"next,omitempty"` // token de cursor, ya codificado
	Prev        string `json:"prev,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendPage envía una página de resultados con su metadata y el enlace
// canónico que reproduce el estado del listado.
func SendPage(c *gin.Context, data interface{}, meta PageMeta, link string) {
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": meta,
		"link": link,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
		},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
