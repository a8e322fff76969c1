// Command profile-import reads a saved profile, prints what each owner holds
// and optionally stores it for the server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rl1809/asset-vault/internal/adapter/catalog"
	"github.com/rl1809/asset-vault/internal/adapter/export"
	"github.com/rl1809/asset-vault/internal/adapter/profile"
	"github.com/rl1809/asset-vault/internal/adapter/storage"
	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/core/service"
	"github.com/rl1809/asset-vault/internal/logging"
	"github.com/rl1809/asset-vault/internal/port"
)

type options struct {
	itemsFile string
	xlsxPath  string
	doImport  bool
	refresh   bool
	mysqlDSN  string
	redisAddr string
	limits    domain.SlotLimits
	logLevel  string
}

func main() {
	opts := options{}
	flags := pflag.NewFlagSet("profile-import", pflag.ExitOnError)
	flags.StringVar(&opts.itemsFile, "items-file", "", "YAML item catalog")
	flags.StringVar(&opts.xlsxPath, "xlsx", "", "write every owner's assets to this spreadsheet")
	flags.BoolVar(&opts.doImport, "import", false, "store owners and inventory in MySQL and snapshot their forests")
	flags.BoolVar(&opts.refresh, "refresh", false, "queue a refresh for every imported owner")
	flags.StringVar(&opts.mysqlDSN, "mysql-dsn", "root:root@tcp(localhost:3306)/assetvault?parseTime=true", "MySQL DSN")
	flags.StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "Redis address")
	flags.IntVar(&opts.limits.Manufacturing, "manufacturing-slots", 1, "manufacturing slots per owner")
	flags.IntVar(&opts.limits.Research, "research-slots", 1, "research slots per owner")
	flags.IntVar(&opts.limits.Reactions, "reaction-slots", 1, "reaction slots per owner")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: profile-import [flags] <profile.xml[.gz]>\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])
	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{Level: opts.logLevel, Format: "console", Development: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), logger, opts, flags.Arg(0)); err != nil {
		logger.Fatal("profile import failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger, opts options, path string) error {
	var items catalog.StaticResolver
	if opts.itemsFile != "" {
		loaded, err := catalog.LoadYAML(opts.itemsFile)
		if err != nil {
			return err
		}
		items = loaded
		logger.Info("loaded item catalog", zap.Int("items", len(items)))
	}

	var resolver port.ItemResolver = items
	start := time.Now()
	prof, err := profile.NewReader(resolver).Load(path)
	if err != nil {
		return err
	}
	logger.Info("read profile",
		zap.String("path", path),
		zap.Int("accounts", len(prof.Accounts)),
		zap.Int("kit_owners", len(prof.KitOwners)),
		zap.Duration("took", time.Since(start)))

	printSummary(prof, service.NewConverter(resolver), opts.limits)

	if opts.xlsxPath != "" {
		if err := writeXLSX(opts.xlsxPath, prof); err != nil {
			return err
		}
		logger.Info("wrote spreadsheet", zap.String("path", opts.xlsxPath))
	}

	if !opts.doImport {
		return nil
	}
	return importProfile(ctx, logger, opts, items, prof)
}

func printSummary(prof *domain.Profile, converter *service.Converter, limits domain.SlotLimits) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OWNER\tID\tROOTS\tASSETS\tJOBS\tORDERS\tCONTRACTS\tJOURNAL")
	for _, owner := range prof.Owners() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			owner.Name, owner.ID, len(owner.Assets), owner.Assets.Len(),
			len(owner.IndustryJobs), len(owner.MarketOrders), len(owner.Contracts), len(owner.Journal))
	}
	tw.Flush()

	var jobs, orders int
	for _, owner := range prof.Owners() {
		jobs += len(converter.IndustryJobAssets(owner.IndustryJobs, true))
		orders += len(converter.MarketOrderAssets(owner.MarketOrders, true, true))
	}
	contracts := 0
	index := prof.OwnerIndex()
	for _, owner := range prof.Owners() {
		contracts += len(converter.ContractAssets(owner.Contracts, index, true, true))
	}
	fmt.Printf("\nassets in jobs: %d, in orders: %d, in contracts: %d\n\n", jobs, orders, contracts)

	tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOTS\tMANUFACTURING\tRESEARCH\tREACTIONS")
	for _, slot := range service.IndustrySlots(prof.Owners(), limits, time.Now()) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", slot.OwnerName,
			counters(slot.Manufacturing), counters(slot.Research), counters(slot.Reactions))
	}
	tw.Flush()
}

func counters(c domain.SlotCounters) string {
	return fmt.Sprintf("%d/%d active, %d done, %d free", c.Active, c.Max, c.Done, c.Free)
}

func writeXLSX(path string, prof *domain.Profile) error {
	var all domain.Forest
	for _, owner := range prof.Owners() {
		all = append(all, owner.Assets...)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteAssetsXLSX(f, all); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func importProfile(ctx context.Context, logger *zap.Logger, opts options, items catalog.StaticResolver, prof *domain.Profile) error {
	db, err := sql.Open("mysql", opts.mysqlDSN)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(ctx); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	redisAdapter := storage.NewRedisAdapter(rdb)

	resolver, err := catalog.NewCachedResolver(mysqlAdapter, items, 4096, logger)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		if err := mysqlAdapter.UpsertItems(ctx, items.Items()); err != nil {
			return err
		}
		resolver.Purge()
		logger.Info("stored item catalog", zap.Int("items", len(items)))
	}
	owners := prof.Owners()
	svc := service.NewAssetService(mysqlAdapter, redisAdapter, service.NewConverter(resolver), len(owners)+1,
		service.WithLogger(logger))
	defer svc.Close()

	imported, err := svc.ImportProfile(ctx, prof)
	if err != nil {
		return err
	}
	logger.Info("imported profile", zap.Int("owners", imported))

	if !opts.refresh {
		return nil
	}
	for _, owner := range owners {
		req, err := svc.RequestRefresh(ctx, "", owner.ID)
		if err != nil {
			return fmt.Errorf("refresh owner %d: %w", owner.ID, err)
		}
		done := svc.HandleRefresh(ctx, <-svc.RefreshQueue())
		logger.Info("refreshed owner",
			zap.Int64("owner_id", owner.ID),
			zap.String("request_id", req.ID),
			zap.String("status", string(done.Status)))
	}
	return nil
}
