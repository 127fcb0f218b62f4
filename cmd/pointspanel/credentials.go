package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	sqliteadapter "github.com/ericfisherdev/pointspanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

const credentialsUsage = "usage: pointspanel credentials set|delete <ledger|github> | list"

// runCredentials manages stored service tokens. "set" reads the token from
// the first line of in.
func runCredentials(ctx context.Context, store driven.CredentialStore, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(credentialsUsage)
	}

	switch args[0] {
	case "list":
		creds, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range creds {
			fmt.Fprintf(out, "%s\tupdated %s\n", c.Service, humanize.Time(c.UpdatedAt))
		}
		return nil

	case "set", "delete":
		if len(args) != 2 {
			return errors.New(credentialsUsage)
		}
		service := args[1]
		if service != sqliteadapter.ServiceLedger && service != sqliteadapter.ServiceGitHub {
			return fmt.Errorf("unknown service %q: %s", service, credentialsUsage)
		}

		if args[0] == "delete" {
			if err := store.Delete(ctx, service); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s credential deleted\n", service)
			return nil
		}

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read token: %w", err)
		}
		token := strings.TrimSpace(line)
		if token == "" {
			return errors.New("token must not be empty")
		}
		if err := store.Set(ctx, service, token); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s credential stored\n", service)
		return nil

	default:
		return errors.New(credentialsUsage)
	}
}
