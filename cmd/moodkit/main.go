// Command moodkit 提供 HTTP 服务、离线排序与评论采集。
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
