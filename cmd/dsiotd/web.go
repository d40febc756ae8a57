package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/kelmer/godsiot"
)

type stateView struct {
	MAC          string   `json:"mac"`
	Model        string   `json:"model"`
	Power        bool     `json:"power"`
	Mode         string   `json:"mode"`
	InsideTemp   float64  `json:"insideTemp"`
	OutsideTemp  *float64 `json:"outsideTemp,omitempty"`
	Humidity     *int     `json:"humidity,omitempty"`
	TargetTemp   *float64 `json:"targetTemp,omitempty"`
	FanRate      string   `json:"fanRate"`
	FanDirection string   `json:"fanDirection"`
	TodayRuntime string   `json:"todayRuntime,omitempty"`
}

func makeStateView(st godsiot.State) stateView {
	return stateView{
		MAC:          st.MAC,
		Model:        st.Model,
		Power:        st.Power,
		Mode:         st.Mode,
		InsideTemp:   st.InsideTemp,
		OutsideTemp:  st.OutsideTemp,
		Humidity:     st.Humidity,
		TargetTemp:   st.TargetTemp,
		FanRate:      st.FanRate,
		FanDirection: st.SwingMode,
		TodayRuntime: st.TodayRuntime,
	}
}

type settingsRequest struct {
	Mode         string   `json:"mode"`
	TargetTemp   *float64 `json:"targetTemp"`
	FanRate      string   `json:"fanRate"`
	FanDirection string   `json:"fanDirection"`
}

func (r *settingsRequest) toSettings() map[string]string {
	settings := make(map[string]string)
	if r.Mode != "" {
		settings["mode"] = r.Mode
	}
	if r.TargetTemp != nil {
		settings["stemp"] = strconv.FormatFloat(*r.TargetTemp, 'f', 1, 64)
	}
	if r.FanRate != "" {
		settings["f_rate"] = r.FanRate
	}
	if r.FanDirection != "" {
		settings["f_dir"] = r.FanDirection
	}
	return settings
}

func webserver(port int) {
	r := gin.Default()

	api := r.Group("/api")

	api.GET("/status", func(c *gin.Context) {
		c.JSON(200, makeStateView(br.snapshot()))
	})

	api.PUT("/settings", func(c *gin.Context) {
		var req settingsRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		settings := req.toSettings()
		if len(settings) == 0 {
			c.JSON(400, gin.H{"error": "no settings provided"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), callTimeout)
		defer cancel()
		if err := br.apply(ctx, settings); err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, makeStateView(br.snapshot()))
	})

	api.GET("/adjustment", func(c *gin.Context) {
		adj := br.adjustment()
		if adj == nil {
			c.JSON(200, gin.H{"adjusted": false})
			return
		}
		c.JSON(200, gin.H{
			"adjusted":  true,
			"requested": adj.Requested,
			"accepted":  adj.Accepted,
			"message":   adj.Message,
		})
	})

	log.Fatal(r.Run(fmt.Sprintf(":%d", port)))
}
