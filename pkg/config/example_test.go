package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/filereader/pkg/config"
)

// ExampleNewIngestionConfig shows the defaults.
func ExampleNewIngestionConfig() {
	cfg := config.NewIngestionConfig("orders")

	fmt.Printf("Delimiters: %q\n", cfg.Format.ColumnDelimiters)
	fmt.Printf("Short rows: %s\n", cfg.Rows.ShortRows)
	fmt.Printf("Row id prefix: %s\n", cfg.Rows.RowIDPrefix)
	fmt.Printf("Charset: %s\n", cfg.Source.Charset)

	// Output:
	// Delimiters: [","]
	// Short rows: reject
	// Row id prefix: Row
	// Charset: default
}

// ExampleIngestionConfig_Validate shows validation of a European number format.
func ExampleIngestionConfig_Validate() {
	cfg := config.NewIngestionConfig("prices")
	cfg.Format.ColumnDelimiters = []string{";"}
	cfg.Format.DecimalSeparator = ","
	cfg.Format.ThousandsSeparator = "."
	cfg.Schema.Columns = []config.ColumnConfig{
		{Name: "sku", Type: "string"},
		{Name: "price", Type: "double"},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Printf("decimal=%q thousands=%q\n", cfg.CoerceOptions().DecimalSeparator, cfg.CoerceOptions().ThousandsSeparator)

	cfg.Format.ThousandsSeparator = ","
	fmt.Println(cfg.Validate())

	// Output:
	// decimal=',' thousands='.'
	// decimal and thousands separator are both ","
}
