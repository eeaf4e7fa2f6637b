// gentoken 为运维与联调签发访问令牌，例如：
//
//	go run ./cmd/gentoken -user ops-1 -role admin
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"bonus-wheel/config"
	"bonus-wheel/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "令牌中的 user_id")
	role := flag.String("role", "admin", "令牌中的角色")
	configPath := flag.String("config", "", "配置文件路径（默认 ./config/config.yaml）")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "必须指定 -user")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(*userID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "签发令牌失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
