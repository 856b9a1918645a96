package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	internalApp "github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/internal/dao"
	"github.com/haierkeys/content-revision-service/internal/domain"

	"github.com/bytedance/sonic"
	"github.com/gookit/goutil/dump"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type revisionFlags struct {
	config   string
	dump     bool
	page     int
	pageSize int
}

// openApp 以离线方式打开存储，不启动 HTTP 服务与定时任务
func openApp(configPath string) (*internalApp.App, func(), error) {
	if configPath == "" {
		configPath = findConfig()
	}
	if configPath == "" {
		return nil, nil, errors.New("config file not found, use -c to specify one")
	}
	cfg, _, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	if cfg.Database.Type != "badger" {
		db, err = dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), bootstrapLogger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open database")
		}
	}

	a, err := internalApp.NewApp(cfg, bootstrapLogger, db)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {
		if err := a.Shutdown(context.Background()); err != nil {
			bootstrapLogger.Warn("shutdown error", zap.Error(err))
		}
	}, nil
}

func printResult(w io.Writer, useDump bool, v any) error {
	if useDump {
		dump.Fprint(w, v)
		return nil
	}
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func parseID(s, name string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return id, nil
}

func init() {
	flags := new(revisionFlags)

	revisionCmd := &cobra.Command{
		Use:   "revision",
		Short: "Inspect and verify revision history // 查看与校验版本历史",
	}
	revisionCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file")
	revisionCmd.PersistentFlags().BoolVar(&flags.dump, "dump", false, "print with goutil dump instead of JSON")

	listCmd := &cobra.Command{
		Use:   "list <kind> <id>",
		Short: "List revisions of a content, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "id")
			if err != nil {
				return err
			}
			a, closeFn, err := openApp(flags.config)
			if err != nil {
				return err
			}
			defer closeFn()

			list, total, err := a.RevisionService.List(cmd.Context(), kind, id, flags.page, flags.pageSize)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), flags.dump, map[string]any{"list": list, "total": total})
		},
	}
	listCmd.Flags().IntVar(&flags.page, "page", 1, "page")
	listCmd.Flags().IntVar(&flags.pageSize, "page-size", 100, "page size")

	showCmd := &cobra.Command{
		Use:   "show <kind> <id> <revisionId>",
		Short: "Print the text right after a revision",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "id")
			if err != nil {
				return err
			}
			revisionID, err := parseID(args[2], "revisionId")
			if err != nil {
				return err
			}
			a, closeFn, err := openApp(flags.config)
			if err != nil {
				return err
			}
			defer closeFn()

			rev, err := a.RevisionService.Get(cmd.Context(), kind, id, revisionID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), flags.dump, rev)
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <kind> [id]",
		Short: "Replay ledgers and report corrupt ones",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			a, closeFn, err := openApp(flags.config)
			if err != nil {
				return err
			}
			defer closeFn()

			if len(args) == 2 {
				id, err := parseID(args[1], "id")
				if err != nil {
					return err
				}
				if err := a.RevisionService.Verify(cmd.Context(), kind, id); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %d ok\n", kind, id)
				return err
			}

			report, err := a.RevisionService.VerifyAll(cmd.Context(), kind)
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), flags.dump, report); err != nil {
				return err
			}
			if len(report.Corrupt) > 0 {
				cmd.SilenceUsage = true
				return errors.Errorf("%d corrupt ledgers", len(report.Corrupt))
			}
			return nil
		},
	}

	revisionCmd.AddCommand(listCmd, showCmd, verifyCmd)
	rootCmd.AddCommand(revisionCmd)
}
