//go:build integration

package firestore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	domain "github.com/cameron-natural/api/internal/domain"
	pconfig "github.com/cameron-natural/api/internal/platform/config"
	pfirestore "github.com/cameron-natural/api/internal/platform/firestore"
	"github.com/cameron-natural/api/internal/repositories"
)

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

func TestOrderRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}

	ensureDockerDaemon(t)

	port := freePort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)
	containerID := startFirestoreEmulator(t, port)
	t.Cleanup(func() { stopContainer(containerID) })

	waitForEndpoint(t, endpoint, 30*time.Second)

	cfg := pconfig.FirestoreConfig{
		ProjectID:    "orders-test",
		EmulatorHost: endpoint,
	}

	provider := pfirestore.NewProvider(cfg)
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	repo, err := NewOrderRepository(provider)
	if err != nil {
		t.Fatalf("new order repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	createdAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	order := domain.Order{
		ID: "ord_itest_1",
		Items: []domain.OrderLine{
			{
				MenuItemID: "item_thai_tea",
				Name:       domain.BilingualName{TH: "ชาไทย", EN: "Thai Tea"},
				Temp:       domain.TempIced,
				Addons: []domain.Addon{
					{ID: "addon_pearls", Name: domain.BilingualName{TH: "ไข่มุก", EN: "Pearls"}, Price: 10},
				},
				Quantity:   2,
				UnitPrice:  60,
				TotalPrice: 120,
			},
		},
		Subtotal:      120,
		Total:         120,
		PaymentMethod: domain.PaymentMethodCard,
		PaymentStatus: domain.PaymentStatusPending,
		OrderStatus:   domain.OrderStatusPending,
		CustomerName:  "Nok",
		CustomerPhone: "0812345678",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	if err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("insert order: %v", err)
	}

	loaded, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if loaded.CustomerName != "Nok" || loaded.Total != 120 {
		t.Fatalf("unexpected order loaded: %+v", loaded)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Name.TH != "ชาไทย" {
		t.Fatalf("expected bilingual line item to round-trip, got %+v", loaded.Items)
	}
	if len(loaded.Items[0].Addons) != 1 || loaded.Items[0].Addons[0].ID != "addon_pearls" {
		t.Fatalf("expected addon to round-trip, got %+v", loaded.Items[0].Addons)
	}

	_, err = repo.FindByID(ctx, "ord_does_not_exist")
	if err == nil {
		t.Fatal("expected not found error for unknown order")
	}
	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
		t.Fatalf("expected not-found repository error, got %T %v", err, err)
	}

	if _, err := repo.FindBySessionRef(ctx, "cs_missing"); err == nil {
		t.Fatal("expected not found for unknown session ref")
	}

	order.StripeSessionID = "cs_itest_1"
	order.UpdatedAt = createdAt.Add(time.Minute)
	if err := repo.Update(ctx, order); err != nil {
		t.Fatalf("update order: %v", err)
	}

	bySession, err := repo.FindBySessionRef(ctx, "cs_itest_1")
	if err != nil {
		t.Fatalf("find by session ref: %v", err)
	}
	if bySession.ID != order.ID {
		t.Fatalf("expected order %s, got %s", order.ID, bySession.ID)
	}

	second := order
	second.ID = "ord_itest_2"
	second.OrderStatus = domain.OrderStatusCompleted
	second.PaymentStatus = domain.PaymentStatusPaid
	second.StripeSessionID = ""
	second.CreatedAt = createdAt.Add(2 * time.Minute)
	second.UpdatedAt = second.CreatedAt
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("insert second order: %v", err)
	}

	all, err := repo.List(ctx, domain.OrderFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
	if all[0].ID != "ord_itest_2" {
		t.Fatalf("expected newest order first, got %s", all[0].ID)
	}

	completed, err := repo.List(ctx, domain.OrderFilter{Status: domain.OrderStatusCompleted})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != "ord_itest_2" {
		t.Fatalf("unexpected completed orders: %+v", completed)
	}

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	sameDay, err := repo.List(ctx, domain.OrderFilter{Date: &day, Limit: 1})
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(sameDay) != 1 {
		t.Fatalf("expected date filter with limit to return 1 order, got %d", len(sameDay))
	}

	update := domain.Order{
		ID:            "ord_does_not_exist",
		OrderStatus:   domain.OrderStatusConfirmed,
		PaymentStatus: domain.PaymentStatusPending,
		UpdatedAt:     createdAt,
	}
	if err := repo.Update(ctx, update); err == nil {
		t.Fatal("expected update of missing order to fail")
	}

	// Reconcile-style read-check-write through the transactional boundary.
	unit, err := NewUnitOfWork(provider)
	if err != nil {
		t.Fatalf("new unit of work: %v", err)
	}
	err = unit.RunInTx(ctx, func(txCtx context.Context) error {
		loaded, err := repo.FindBySessionRef(txCtx, "cs_itest_1")
		if err != nil {
			return err
		}
		loaded.OrderStatus = domain.OrderStatusConfirmed
		loaded.PaymentStatus = domain.PaymentStatusPaid
		loaded.UpdatedAt = createdAt.Add(2 * time.Minute)
		return repo.Update(txCtx, loaded)
	})
	if err != nil {
		t.Fatalf("run in tx: %v", err)
	}
	confirmed, err := repo.FindByID(ctx, "ord_itest_1")
	if err != nil {
		t.Fatalf("find after tx: %v", err)
	}
	if confirmed.OrderStatus != domain.OrderStatusConfirmed || confirmed.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected confirmed/paid after transactional update, got %s/%s", confirmed.OrderStatus, confirmed.PaymentStatus)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port
}

func startFirestoreEmulator(t *testing.T, port int) string {
	t.Helper()
	args := []string{
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		firestoreEmulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	}

	cmd := exec.Command("docker", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatalf("docker returned empty container id")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func ensureDockerDaemon(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		t.Fatalf("docker daemon not available: %v", err)
	}
}

func stopContainer(id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "stop", id)
	_ = cmd.Run()
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("firestore emulator at %s did not become ready within %s", endpoint, timeout)
}
