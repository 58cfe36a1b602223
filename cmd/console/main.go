package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"cagedesk/internal/config"
	"cagedesk/internal/console"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
)

func main() {
	phone := flag.String("phone", "", "staff phone number")
	secret := flag.String("secret", "", "shared access code")
	watch := flag.Bool("watch", false, "stay signed in and follow changes")
	logout := flag.Bool("logout", false, "end the cached session and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	store, err := console.NewLocalStore(cfg.Console.StateDir)
	if err != nil {
		log.Fatalf("❌ Failed to open state directory: %v", err)
	}
	client := console.NewClient(cfg.Console.APIURL, fmt.Sprintf("cagedesk-console/1.0 (%s; %s)", runtime.GOOS, runtime.GOARCH))
	app := console.NewAppContext(store, client, cfg.HeartbeatInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Init(ctx); err != nil {
		log.Printf("⚠️ Could not restore session: %v", err)
	}

	if *logout {
		if err := app.Logout(ctx); err != nil {
			log.Printf("⚠️ Server logout failed: %v", err)
		}
		fmt.Println("Signed out.")
		return
	}

	if app.State().Auth != console.Authorized {
		if n := app.State().LoginError; n != "" {
			fmt.Println(n)
		}
		in := bufio.NewReader(os.Stdin)
		if *phone == "" {
			*phone = prompt(in, "Phone: ")
		}
		if *secret == "" {
			*secret = prompt(in, "Access code: ")
		}
		if err := app.Login(ctx, *phone, *secret); err != nil {
			fmt.Fprintln(os.Stderr, loginMessage(app.State(), err))
			os.Exit(1)
		}
	}

	s := app.State()
	fmt.Printf("Signed in as %s%s\n\n", s.Session.Name, masterTag(s.Session.Master))
	printWorklists(ctx, client, s)

	if !*watch {
		return
	}

	var lastHead atomic.Uint64
	lastHead.Store(s.FeedHead)
	app.OnChange(func(s console.State) {
		if !s.NeedsRefresh && lastHead.Swap(s.FeedHead) != s.FeedHead {
			fmt.Printf("↻ %d members · %d expiring within 7 days · %d sessions\n", len(s.Members), s.Counts[domain.Tab7Days], len(s.Sessions))
		}
		if s.Banner != "" {
			fmt.Printf("⚠️ %s\n", s.Banner)
		}
		if s.StaleSchema {
			fmt.Println("⚠️ The server database is behind this release. Ask an administrator to migrate.")
		}
	})

	log.Println("👀 Watching for changes (Ctrl+C to quit)")
	app.Run(ctx)

	if n := app.State().Notice; n != "" {
		fmt.Println(n)
	}
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func loginMessage(s console.State, err error) string {
	if s.LoginError != "" {
		return s.LoginError
	}
	return err.Error()
}

func masterTag(master bool) string {
	if master {
		return " (master)"
	}
	return ""
}

func printWorklists(ctx context.Context, client *console.Client, s console.State) {
	token := s.Session.Token
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TAB\tMEMBERS")
	for _, tab := range domain.MemberTabs {
		fmt.Fprintf(w, "%s\t%d\n", tab, s.Counts[tab])
	}
	fmt.Fprintln(w)

	if renewals, err := client.Renewals(ctx, token); err != nil {
		log.Printf("⚠️ Renewals unavailable: %v", err)
	} else {
		printMembers(w, "RENEWALS (7 DAYS)", renewals.Within7)
		printMembers(w, "RENEWALS (8-15 DAYS)", renewals.Next15)
	}

	if birthdays, err := client.Birthdays(ctx, token); err != nil {
		log.Printf("⚠️ Birthdays unavailable: %v", err)
	} else {
		printMembers(w, "BIRTHDAYS TODAY", birthdays.Today)
		printMembers(w, "BIRTHDAYS TOMORROW", birthdays.Tomorrow)
	}
}

func printMembers(w *tabwriter.Writer, title string, members []services.MemberView) {
	fmt.Fprintf(w, "%s\t%d\n", title, len(members))
	for _, m := range members {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d days\t₹%.0f due\n",
			m.FullName, m.PhoneNumber, m.ExpiryDate.Format(domain.DisplayDateLayout), m.RemainingDays, m.PendingBalance)
	}
	fmt.Fprintln(w)
}
