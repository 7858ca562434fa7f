package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_inventory_items"), []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"CHECK (available = quantity - reserved)",
		"CHECK (quantity >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_inventory_items_product_warehouse ON inventory_items (product_id, warehouse_id)",
		"CREATE TABLE IF NOT EXISTS stock_movements",
		"CREATE TABLE IF NOT EXISTS stock_movement_requests",
		"DROP TABLE IF EXISTS inventory_items",
	})
}

func TestShipmentMigrationIsUniquePerPurchaseOrder(t *testing.T) {
	assertContains(t, readMigration(t, "create_incoming_shipments"), []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_incoming_shipments_po ON incoming_shipments (purchase_order_id)",
		"CHECK (status IN ('pending', 'assigned', 'processed', 'rejected'))",
		"REFERENCES purchase_order_lines(id)",
	})
}

func TestPurchasingMigrationStatuses(t *testing.T) {
	assertContains(t, readMigration(t, "create_purchasing"), []string{
		"CHECK (status IN ('draft', 'sent', 'received', 'approved', 'rejected'))",
		"rfq_id uuid UNIQUE REFERENCES rfqs(id)",
		"CREATE TABLE IF NOT EXISTS purchase_order_lines",
		"DROP TABLE IF EXISTS rfqs",
	})
}

func TestLeatherBatchMigrationChainCheck(t *testing.T) {
	assertContains(t, readMigration(t, "create_leather_batches"), []string{
		"parent_id uuid REFERENCES leather_batches(id)",
		"CHECK (stage IN ('raw', 'wet_blue', 'retanning', 'finished'))",
	})
}
