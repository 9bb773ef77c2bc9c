// Command board prints the workshop kanban as a table: orders, late and
// overdue counts per column, then the open orders of the chosen column.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/fildor/atelier-api/config"
	"github.com/fildor/atelier-api/logger"
	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/repository"
	"github.com/fildor/atelier-api/services"
	"github.com/olekukonko/tablewriter"
)

func main() {
	var (
		query    = flag.String("q", "", "only count orders whose client or model matches")
		lateOnly = flag.Bool("late", false, "only count late orders")
		column   = flag.String("column", "", "also list the cards of this column (pending, cutting, sewing, fitting, completed)")
		timeout  = flag.Duration("timeout", 30*time.Second, "give up after this long")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.GoEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	db := config.GetDB()

	// images and events are never touched by a read-only board
	orders := services.NewOrderService(
		repository.NewOrderRepository(db, logger.Log),
		repository.NewCatalogRepository(db, logger.Log),
		services.NewImageService(services.NewMockS3Service()),
		services.NoopPublisher{},
		services.PolicyFromConfig(cfg),
		logger.Log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	board, err := services.NewKanbanService(orders).Load(ctx, services.ListOptions{Query: *query, LateOnly: *lateOnly})
	if err != nil {
		log.Fatalf("failed to load the board: %v", err)
	}

	if err := printSummary(os.Stdout, board); err != nil {
		log.Fatalf("failed to print the board: %v", err)
	}

	if *column != "" {
		status, ok := models.ParseOrderStatus(*column)
		if !ok {
			log.Fatalf("unknown column %q", *column)
		}
		if err := printColumn(os.Stdout, board.Column(status)); err != nil {
			log.Fatalf("failed to print the column: %v", err)
		}
	}
}

// printSummary writes one row per column and a total footer
func printSummary(w io.Writer, board *services.Board) error {
	fmt.Fprintf(w, "Board for %s\n", board.Today)

	table := tablewriter.NewWriter(w)
	table.Header("Column", "Orders", "Late", "Overdue")
	for _, column := range board.Columns {
		late, overdue := 0, 0
		for _, card := range column.Cards {
			if card.Late {
				late++
			}
			if card.Overdue {
				overdue++
			}
		}
		if err := table.Append([]string{
			column.Label,
			strconv.Itoa(column.Count),
			strconv.Itoa(late),
			strconv.Itoa(overdue),
		}); err != nil {
			return err
		}
	}
	table.Footer("Total", strconv.Itoa(board.Total), strconv.Itoa(board.LateCount), strconv.Itoa(board.OverdueCount))
	return table.Render()
}

// printColumn lists the cards of one column with their balance and due date
func printColumn(w io.Writer, column *services.BoardColumn) error {
	fmt.Fprintf(w, "\n%s\n", column.Label)

	table := tablewriter.NewWriter(w)
	table.Header("Client", "Model", "Due", "Days", "Total", "Remaining", "Flag")
	for _, card := range column.Cards {
		client, model := "-", "-"
		if card.Client != nil {
			client = card.Client.DisplayName()
		}
		if card.Model != nil {
			model = card.Model.Name
		}

		marker := ""
		switch {
		case card.Overdue:
			marker = "OVERDUE"
		case card.Late:
			marker = "LATE"
		}

		if err := table.Append([]string{
			client,
			model,
			card.DeliveryDate.String(),
			strconv.Itoa(card.DaysUntilDelivery),
			strconv.FormatFloat(card.TotalPrice, 'f', 0, 64),
			strconv.FormatFloat(card.Remaining(), 'f', 0, 64),
			marker,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
