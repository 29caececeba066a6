/**
 * @description
 * Admin utility that creates a hotspot user directly on the router, bypassing
 * the billing flow. Useful for manual provisioning and for verifying router
 * credentials before deploying the service.
 *
 * Usage:
 *   create-hotspot-user -name 254700111222 -secret 1222 -profile 2_HOURS_UNLIMITED
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmkash-web/wifibill/internal/config"
	"github.com/mmkash-web/wifibill/pkg/mikrotikclient"
)

func main() {
	name := flag.String("name", "", "hotspot user name")
	secret := flag.String("secret", "", "hotspot user password")
	profile := flag.String("profile", "", "hotspot profile name")
	comment := flag.String("comment", "Added manually", "comment stored on the router")
	flag.Parse()

	if *name == "" || *secret == "" || *profile == "" {
		fmt.Fprintln(os.Stderr, "usage: create-hotspot-user -name <user> -secret <password> -profile <profile> [-comment <comment>]")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=create_hotspot_user msg=\"config load failed\" err=%v", err)
	}
	if cfg.MikroTikBaseURL == "" || cfg.MikroTikUsername == "" || cfg.MikroTikPassword == "" {
		log.Fatal("level=fatal component=create_hotspot_user msg=\"MIKROTIK_BASE_URL, MIKROTIK_USERNAME and MIKROTIK_PASSWORD must be set\"")
	}

	client := mikrotikclient.NewClient(cfg.MikroTikBaseURL, cfg.MikroTikUsername, cfg.MikroTikPassword)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.CreateHotspotCredential(ctx, *name, *secret, *profile, *comment); err != nil {
		log.Fatalf("level=fatal component=create_hotspot_user msg=\"failed to create user\" name=%s err=%v", *name, err)
	}

	fmt.Printf("User %s created successfully\n", *name)
}
