package main

import (
	"log"
	"net/http"
	"vbs/src/config"
	"vbs/src/db"
	"vbs/src/models"
	"vbs/src/types"

	"github.com/gin-gonic/gin"
)

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			var query struct {
				Status string `form:"status"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			q := db.Model(&models.Booking{}).Preload("User")
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			var bookings []models.Booking
			if err := q.Order("created_at desc").Limit(100).Find(&bookings).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PUT("/bookings/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateBookingStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			actor := types.ACTOR_ADMIN
			if ctx.GetString("role") == "vendor" {
				actor = types.ACTOR_VENDOR
			}
			result, err := stateMachine.Transition(params.ID, types.BookingStatus(body.Status), actor, &actorId, body.Reason)
			if err != nil {
				log.Printf("Error on status change for booking %d: %s\n", params.ID, err.Error())
				ctx.JSON(statusForBookingError(err), gin.H{"error": err.Error()})
				return
			}
			if result.NoOp {
				ctx.JSON(http.StatusOK, gin.H{"data": result, "noop": true})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		GET("/pricing-rules", func(ctx *gin.Context) {
			db := db.GetDb()
			var rules []models.PricingRule
			err := db.
				Model(&models.PricingRule{}).
				Order("priority desc, id asc").
				Find(&rules).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rules, "count": len(rules)})
		}).
		GET("/transitions", func(ctx *gin.Context) {
			db := db.GetDb()
			var transitions []models.StatusTransition
			err := db.
				Model(&models.StatusTransition{}).
				Order("from_status asc, to_status asc").
				Find(&transitions).
				Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": transitions, "count": len(transitions)})
		}).
		POST("/transitions/reload", func(ctx *gin.Context) {
			if err := stateMachine.Reload(); err != nil {
				log.Printf("Error reloading transitions: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/sweeps/expire", func(ctx *gin.Context) {
			result := sweepService.ExpireStalePending(config.PendingMaxAge())
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		POST("/sweeps/complete", func(ctx *gin.Context) {
			result := sweepService.CompletePastDue()
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		})
	return g
}
