package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"banditd/internal/model"
	"banditd/internal/service"
)

func createBandit(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateBanditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		resp, err := svc.CreateBandit(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func listBandits(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.ListBandits(c.Request.Context()))
	}
}

func listStrategies(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Strategies())
	}
}

func selectArm(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.SelectArm(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func updateReward(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdateRewardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		resp, err := svc.UpdateReward(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func banditStats(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.BanditStats(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func removeBandit(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RemoveBandit(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func createOptimizer(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateOptimizerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		resp, err := svc.CreateOptimizer(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func listOptimizers(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.ListOptimizers(c.Request.Context()))
	}
}

func suggest(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.Suggest(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func observe(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ObserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBadRequest(c, err)
			return
		}
		resp, err := svc.Observe(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func optimizerState(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.OptimizerState(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func optimizerHistory(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.OptimizerHistory(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func removeOptimizer(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RemoveOptimizer(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func events(svc *service.Service, kind model.InstanceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeBadRequest(c, fmt.Errorf("limit must be a non-negative integer, got %q", raw))
				return
			}
			limit = n
		}
		resp, err := svc.Events(c.Request.Context(), kind, c.Param("id"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
