// Command venues looks clubs up in the public Playtomic directory so an
// operator can find the tenant id to configure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"padel-assistant/internal/playtomic"
)

func main() {
	var (
		name    = flag.String("name", "", "club name fragment")
		lat     = flag.Float64("lat", 0, "latitude to search around")
		lon     = flag.Float64("lon", 0, "longitude to search around")
		radius  = flag.Int("radius", 50000, "search radius in meters")
		sport   = flag.String("sport", "PADEL", "sport id")
		size    = flag.Int("size", 0, "maximum results")
		timeout = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()
	_ = godotenv.Load()

	if *name == "" && *lat == 0 && *lon == 0 {
		fmt.Fprintln(os.Stderr, "usage: venues -name <fragment> | -lat <lat> -lon <lon> [-radius m]")
		os.Exit(2)
	}

	client := playtomic.New(playtomic.Config{
		PublicAPIURL: os.Getenv("PLAYTOMIC_PUBLIC_API_URL"),
		Timeout:      *timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	tenants, err := client.SearchTenants(ctx, playtomic.TenantQuery{
		Name:    *name,
		Lat:     *lat,
		Lon:     *lon,
		RadiusM: *radius,
		SportID: *sport,
		Size:    *size,
	})
	if err != nil {
		slog.Error("venue search failed", "error", err)
		os.Exit(1)
	}
	if len(tenants) == 0 {
		fmt.Println("no clubs found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TENANT ID\tNAME\tCITY\tCOUNTRY")
	for _, t := range tenants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TenantID, t.TenantName, t.Address.City, t.Address.Country)
	}
	w.Flush()
}
