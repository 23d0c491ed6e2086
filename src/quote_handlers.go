package main

import (
	"log"
	"net/http"
	"vbs/src/types"

	"github.com/gin-gonic/gin"
)

func quoteHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/quote", func(ctx *gin.Context) {
			var body types.QuoteRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			quote, err := bookingService.Quote(userId, &body)
			if err != nil {
				log.Printf("Error computing quote: %s\n", err.Error())
				ctx.JSON(statusForBookingError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": quote})
		})
	return g
}
