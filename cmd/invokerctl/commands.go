package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sunnyhub/openwhisk/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pool's current occupancy",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(baseURL() + "/status")
		if err != nil {
			fmt.Println(err)
			return
		}
		utils.PrintJsonResponse(resp.Body)
	},
}

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Control the pool's age-based garbage collector",
}

var gcForceCmd = &cobra.Command{
	Use:   "force",
	Short: "Run an immediate full-idle GC sweep",
	Run:   func(cmd *cobra.Command, args []string) { postAdmin("/admin/gc/force") },
}

var gcEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Re-enable age- and capacity-based eviction",
	Run:   func(cmd *cobra.Command, args []string) { postAdmin("/admin/gc/enable") },
}

var gcDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable age- and capacity-based eviction",
	Run:   func(cmd *cobra.Command, args []string) { postAdmin("/admin/gc/disable") },
}

var stragglersCmd = &cobra.Command{
	Use:   "stragglers",
	Short: "Manage containers left over from an abnormal restart",
}

var stragglersKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Destroy every backend container matching the pool's name prefix",
	Run:   func(cmd *cobra.Command, args []string) { postAdmin("/admin/stragglers/kill") },
}

func postAdmin(path string) {
	resp, err := utils.PostJson(baseURL()+path, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	utils.PrintJsonResponse(resp.Body)
}
