package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zorvex/zorvex-backend/config"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/db"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/validation"
	"gorm.io/gorm"
)

func main() {
	yes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("Usage: go run ./cmd/seed [-yes] <products.xlsx>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	if err := db.SeedAdmin(db.GetDB(), cfg.Admin); err != nil {
		log.Fatal("Failed to seed admin:", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, skipped, err := readProductRows(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Products to import: %d (skipped rows: %d)\n", len(rows), skipped)

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	imported, err := importProducts(db.GetDB(), rows)
	if err != nil {
		log.Fatal("Import stopped:", err)
	}
	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", imported)
}

// importProducts creates missing categories by name and then the products.
// Rows whose slug already exists are skipped.
func importProducts(gdb *gorm.DB, rows []productRow) (int, error) {
	categoryRepo := repository.NewCategoryRepository(gdb)
	categories := service.NewCategoryService(categoryRepo)
	products := service.NewProductService(repository.NewProductRepository(gdb), categoryRepo)

	categoryIDs := make(map[string]uint)
	imported := 0
	for _, row := range rows {
		categoryID, err := ensureCategory(categoryRepo, categories, categoryIDs, row.Category)
		if err != nil {
			return imported, err
		}

		input := row.input()
		input.CategoryID = categoryID
		if _, err := products.Create(input); err != nil {
			if errors.Is(err, service.ErrProductSlugExists) {
				fmt.Printf("Skipping %q: slug already exists\n", row.Name)
				continue
			}
			return imported, fmt.Errorf("row %d (%s): %w", row.Line, row.Name, err)
		}
		imported++
	}
	return imported, nil
}

func ensureCategory(
	repo repository.CategoryRepository,
	categories service.CategoryService,
	cache map[string]uint,
	name string,
) (uint, error) {
	slug := validation.Slugify(name)
	if id, ok := cache[slug]; ok {
		return id, nil
	}

	existing, err := repo.FindBySlug(slug)
	if err == nil {
		cache[slug] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	created, err := categories.Create(service.CategoryInput{Name: name, Slug: slug, Published: true})
	if err != nil {
		return 0, fmt.Errorf("category %s: %w", name, err)
	}
	fmt.Printf("Created category %s\n", created.Name)
	cache[slug] = created.ID
	return created.ID, nil
}
