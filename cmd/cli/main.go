package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"registripe/internal/purge"
	"registripe/internal/registration"
	"registripe/pkg/config"
	"registripe/pkg/models"

	_ "github.com/lib/pq"
)

// ANSI
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	White   = "\033[97m"
	Black   = "\033[30m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Red     = "\033[31m"
	Cyan    = "\033[36m"
	BgGreen = "\033[42m"
	BgRed   = "\033[41m"
	BgCyan  = "\033[46m"
)

var (
	db     *sql.DB
	store  *registration.Store
	task   *purge.Task
	apiURL string
)

func initDB(cfg *config.Config) {
	var err error
	db, err = sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		db = nil
		return
	}
	store = registration.NewStore(db)
	task = purge.NewTask(store, purge.Config{
		UnsubmittedTTL: cfg.UnsubmittedTTL,
		UnconfirmedTTL: cfg.UnconfirmedTTL,
	})
}

func main() {
	cfg := config.LoadForService("CLI")
	apiURL = "http://localhost:" + cfg.APIPort
	initDB(cfg)
	clearScreen()
	printBanner()
	shellLoop()
}

func shellLoop() {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(buildPrompt())

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		fields := strings.Fields(input)

		switch fields[0] {
		case "exit", "quit", "q":
			fmt.Printf("\n%s%s  Bye %s\n\n", BgCyan, Black, Reset)
			return

		case "help", "?":
			printHelp()

		case "clear", "cls":
			clearScreen()
			printBanner()

		case "counts", "c":
			printCounts()

		case "list", "ls":
			status := ""
			if len(fields) > 1 {
				status = fields[1]
			}
			listRegistrations(models.RegistrationStatus(status))

		case "get":
			if len(fields) < 2 {
				fmt.Printf("  %sUsage: get <id>%s\n", Red, Reset)
			} else {
				getRegistration(fields[1])
			}

		case "age":
			if len(fields) < 3 {
				fmt.Printf("  %sUsage: age <id> <duration>  e.g. age 1f3c 20m, age 1f3c 1000d%s\n", Red, Reset)
			} else {
				ageRegistration(fields[1], fields[2])
			}

		case "preview", "p":
			runPurge(true)

		case "purge":
			runPurge(false)

		case "health", "h":
			printHealth()

		case "tables":
			showTables()

		case "sql":
			rawSQL(strings.TrimSpace(strings.TrimPrefix(input, "sql")))

		default:
			// Pass through to system shell
			shellExecRaw(input)
		}

		fmt.Println()
	}
}

func buildPrompt() string {
	if !dbReachable() {
		return fmt.Sprintf("%s%s registripe | db offline %s\n%s>%s ", BgRed, Black, Reset, Cyan, Reset)
	}

	counts, err := store.CountByStatus(context.Background())
	if err != nil {
		return fmt.Sprintf("%s%s registripe | %v %s\n%s>%s ", BgRed, Black, err, Reset, Cyan, Reset)
	}

	parts := make([]string, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(string(st)), counts[st]))
	}
	return fmt.Sprintf("%s%s registripe | %s %s\n%s>%s ", BgGreen, Black, strings.Join(parts, " | "), Reset, Cyan, Reset)
}

func dbReachable() bool {
	if db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return db.PingContext(ctx) == nil
}

func printHelp() {
	fmt.Println()
	fmt.Printf("  %s%sCommands%s\n", Bold, White, Reset)
	fmt.Printf("  %scounts%s   c    registrations by status\n", Green, Reset)
	fmt.Printf("  %slist%s     ls   [status] newest first\n", Green, Reset)
	fmt.Printf("  %sget%s           <id>\n", Green, Reset)
	fmt.Printf("  %sage%s           <id> <duration>  move created into the past\n", Green, Reset)
	fmt.Println()
	fmt.Printf("  %s--- Purge task ---%s\n", Dim, Reset)
	fmt.Printf("  %spreview%s  p    count what a purge would change\n", Green, Reset)
	fmt.Printf("  %spurge%s         run the purge task now\n", Green, Reset)
	fmt.Println()
	fmt.Printf("  %s--- Inspection ---%s\n", Dim, Reset)
	fmt.Printf("  %shealth%s   h    api health check\n", Green, Reset)
	fmt.Printf("  %stables%s        list tables\n", Green, Reset)
	fmt.Printf("  %ssql%s           <query>\n", Green, Reset)
	fmt.Println()
	fmt.Printf("  %sAnything else is passed to your system shell.%s\n", Dim, Reset)
}

func printBanner() {
	fmt.Println()
	fmt.Printf("  %s%s>> Registripe operator shell%s\n", Bold, Cyan, Reset)
	if task != nil {
		fmt.Printf("  %sunsubmitted ttl %s, unconfirmed ttl %s%s\n", Dim, task.UnsubmittedTTL, task.UnconfirmedTTL, Reset)
	}
	fmt.Printf("  %sType 'help' for commands, or use any shell command%s\n", Dim, Reset)
	fmt.Println()
}

// ---------------------------------------------------------------------------
// Registration commands
// ---------------------------------------------------------------------------

func printCounts() {
	if !dbReachable() {
		fmt.Printf("  %s[x] db not reachable%s\n", Red, Reset)
		return
	}
	counts, err := store.CountByStatus(context.Background())
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	for _, st := range models.Statuses {
		fmt.Printf("  %-12s %s%d%s\n", st, Bold, counts[st], Reset)
	}
}

func listRegistrations(status models.RegistrationStatus) {
	if status != "" && !status.Valid() {
		fmt.Printf("  %s[x] unknown status %q%s\n", Red, status, Reset)
		return
	}
	if !dbReachable() {
		fmt.Printf("  %s[x] db not reachable%s\n", Red, Reset)
		return
	}
	regs, err := store.List(context.Background(), status)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}

	now := time.Now()
	fmt.Printf("  %s%-38s %-12s %-28s %s%s\n", Bold, "ID", "STATUS", "EMAIL", "AGE", Reset)
	fmt.Printf("  %s%s%s\n", Dim, strings.Repeat("-", 92), Reset)
	for _, r := range regs[:minInt(len(regs), 50)] {
		fmt.Printf("  %-38s %s%-12s%s %-28s %s\n", r.ID, statusColor(r.Status), r.Status, Reset, r.Email,
			r.Age(now).Round(time.Second))
	}
	if len(regs) > 50 {
		fmt.Printf("  %s... %d more%s\n", Dim, len(regs)-50, Reset)
	}
}

func getRegistration(id string) {
	if !dbReachable() {
		fmt.Printf("  %s[x] db not reachable%s\n", Red, Reset)
		return
	}
	r, err := store.Get(context.Background(), id)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	fmt.Printf("  %sid:%s      %s\n", Dim, Reset, r.ID)
	fmt.Printf("  %sevent:%s   %s\n", Dim, Reset, r.EventID)
	fmt.Printf("  %sname:%s    %s\n", Dim, Reset, r.Name)
	fmt.Printf("  %semail:%s   %s\n", Dim, Reset, r.Email)
	fmt.Printf("  %sstatus:%s  %s%s%s\n", Dim, Reset, statusColor(r.Status), r.Status, Reset)
	fmt.Printf("  %screated:%s %s\n", Dim, Reset, r.Created.Format(time.RFC3339))
	fmt.Printf("  %supdated:%s %s\n", Dim, Reset, r.Updated.Format(time.RFC3339))
}

func ageRegistration(id, age string) {
	d, err := parseAge(age)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	if !dbReachable() {
		fmt.Printf("  %s[x] db not reachable%s\n", Red, Reset)
		return
	}
	created := time.Now().Add(-d)
	if err := store.Backdate(context.Background(), id, created); err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	fmt.Printf("  %s[ok]%s created set to %s\n", Green, Reset, created.Format(time.RFC3339))
}

// maxAgeDays is the largest day count a time.Duration can hold.
const maxAgeDays = int(math.MaxInt64 / int64(24*time.Hour))

// parseAge accepts Go durations plus a whole-day suffix, e.g. "1000d".
func parseAge(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		if n > maxAgeDays {
			return 0, fmt.Errorf("day count %d exceeds %d", n, maxAgeDays)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("age must not be negative")
	}
	return d, nil
}

func runPurge(dryRun bool) {
	if !dbReachable() {
		fmt.Printf("  %s[x] db not reachable%s\n", Red, Reset)
		return
	}

	var res purge.Result
	var err error
	if dryRun {
		res, err = task.Preview(context.Background())
	} else {
		res, err = task.Run(context.Background())
	}
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}

	verb := "deleted"
	cverb := "cancelled"
	if dryRun {
		verb = "would delete"
		cverb = "would cancel"
	}
	fmt.Printf("  %s[ok]%s %s %s%d%s unsubmitted, %s %s%d%s unconfirmed %s(%s)%s\n",
		Green, Reset, verb, Bold, res.Deleted, Reset, cverb, Bold, res.Cancelled, Reset, Dim, res.Duration, Reset)
}

func statusColor(s models.RegistrationStatus) string {
	switch s {
	case models.StatusValid:
		return Green
	case models.StatusUnconfirmed:
		return Yellow
	case models.StatusCancelled:
		return Red
	default:
		return Dim
	}
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

func printHealth() {
	fmt.Printf("  %s%sHealth%s\n", Bold, White, Reset)

	if dbReachable() {
		fmt.Printf("  %s[+]%s %-12s %sok%s\n", Green, Reset, "postgres", Green, Reset)
	} else {
		fmt.Printf("  %s[-]%s %-12s %soffline%s\n", Red, Reset, "postgres", Red, Reset)
	}

	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(apiURL + "/health")
	if err != nil {
		fmt.Printf("  %s[-]%s %-12s %soffline%s\n", Red, Reset, "api", Red, Reset)
		return
	}
	resp.Body.Close()
	fmt.Printf("  %s[+]%s %-12s %sok%s\n", Green, Reset, "api", Green, Reset)
}

func showTables() {
	if !dbReachable() {
		fmt.Printf("  %s[x] db not reachable%s\n", Red, Reset)
		return
	}
	rows, err := db.Query("SELECT tablename FROM pg_tables WHERE schemaname = 'public'")
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		rows.Scan(&name)
		fmt.Printf("  - %s\n", name)
	}
}

func rawSQL(query string) {
	if query == "" {
		fmt.Printf("  %sUsage: sql <query>%s\n", Red, Reset)
		return
	}
	if !dbReachable() {
		fmt.Printf("  %s[x] db not reachable%s\n", Red, Reset)
		return
	}
	rows, err := db.Query(query)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	defer rows.Close()
	cols, _ := rows.Columns()
	fmt.Printf("  %s%s%s\n", Bold, strings.Join(cols, "\t"), Reset)
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		rows.Scan(ptrs...)
		parts := make([]string, len(cols))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Printf("  %s\n", strings.Join(parts, "\t"))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func shellExecRaw(input string) {
	shell, flag := "sh", "-c"
	if _, err := exec.LookPath("bash"); err == nil {
		shell = "bash"
	}

	cmd := exec.Command(shell, flag, input)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Run()
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
