// Package usecasetest builds the persistence and file adapters the service
// tests run against: a temp-dir SQLite database and a temp-dir file store.
package usecasetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rncflow/internal/domain/access"
	"rncflow/internal/domain/inc"
	"rncflow/internal/domain/rnc"
	"rncflow/internal/domain/upload"
	"rncflow/internal/infrastructure/cache"
	"rncflow/internal/infrastructure/document"
	"rncflow/internal/infrastructure/filestore"
	"rncflow/internal/infrastructure/persistence/sqlstore/model"
	"rncflow/internal/infrastructure/persistence/sqlstore/repository"
	"rncflow/internal/infrastructure/persistence/sqlstore/uow"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/evidence"
)

// PDFBytes sniff as application/pdf.
var PDFBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

// JPEGBytes sniff as image/jpeg.
var JPEGBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type Fixture struct {
	DB            *gorm.DB
	UOW           *uow.UnitOfWork
	INCs          *repository.INCRepository
	RNCs          *repository.RNCRepository
	Devolucoes    *repository.DevolucaoRepository
	Consertos     *repository.ConsertoRepository
	Directory     *repository.DirectoryRepository
	Notifications *repository.NotificationRepository
	Files         *filestore.LocalStore
	Evidence      *evidence.Store
	Renderer      *document.NoticeRenderer
	Cache         *cache.KVCache
	Location      *time.Location
}

func New(t testing.TB) *Fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rncflow.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	files, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	return &Fixture{
		DB:            db,
		UOW:           uow.NewUnitOfWork(db),
		INCs:          repository.NewINCRepository(db),
		RNCs:          repository.NewRNCRepository(db),
		Devolucoes:    repository.NewDevolucaoRepository(db),
		Consertos:     repository.NewConsertoRepository(db),
		Directory:     repository.NewDirectoryRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Files:         files,
		Evidence:      evidence.NewStore(files, upload.DefaultMaxBytes, 5*time.Second),
		Renderer:      document.NewNoticeRenderer(files, loc),
		Cache:         cache.NewKVCache(db),
		Location:      loc,
	}
}

func (f *Fixture) Supplier(t testing.TB, name string) ports.Supplier {
	t.Helper()
	s := ports.Supplier{Name: name, CNPJ: "00.000.000/0001-00"}
	require.NoError(t, f.Directory.CreateSupplier(context.Background(), &s))
	return s
}

// Actor creates a user holding perms and returns it as an actor.
func (f *Fixture) Actor(t testing.TB, email string, perms ...string) access.Actor {
	t.Helper()
	u := ports.User{Name: email, Email: email, Permissions: perms}
	require.NoError(t, f.Directory.CreateUser(context.Background(), &u))
	return access.Actor{UserID: u.ID, Permissions: perms}
}

// Admin creates a user holding admin.all.
func (f *Fixture) Admin(t testing.TB, email string) access.Actor {
	return f.Actor(t, email, access.AdminAll)
}

func (f *Fixture) INC(t testing.TB, supplierID uint64, ar string) inc.Inc {
	t.Helper()
	record := inc.Inc{
		SupplierID: supplierID,
		Quantidade: decimal.RequireFromString("12.5"),
		Unidade:    "kg",
		NotaFiscal: "NF-" + ar,
		NumeroAR:   ar,
		Descricao:  "lote fora de especificação",
		Status:     inc.StatusEmAnalise,
	}
	require.NoError(t, f.INCs.Create(context.Background(), &record))
	return record
}

// Notice inserts a notice for a fresh INC of supplierID directly through
// the repository, bypassing numbering and rendering.
func (f *Fixture) Notice(t testing.TB, supplierID uint64, seq int, status rnc.Status, prazoInicio time.Time) rnc.Notice {
	t.Helper()
	source := f.INC(t, supplierID, fmt.Sprintf("AR-%03d", seq))
	start := prazoInicio.UTC()
	n := rnc.Notice{
		Numero:      rnc.FormatNumero(seq, start.Year()),
		Sequencial:  seq,
		Ano:         start.Year(),
		SupplierID:  supplierID,
		IncID:       source.ID,
		Quantidade:  source.Quantidade,
		Unidade:     source.Unidade,
		NotaFiscal:  source.NotaFiscal,
		NumeroAR:    source.NumeroAR,
		Descricao:   source.Descricao,
		Status:      status,
		PrazoInicio: &start,
		CreatedAt:   start,
	}
	require.NoError(t, f.RNCs.Create(context.Background(), &n))
	return n
}

// Exists reports whether path is still in the file store.
func (f *Fixture) Exists(t testing.TB, path string) bool {
	t.Helper()
	ok, err := f.Files.Exists(context.Background(), path)
	require.NoError(t, err)
	return ok
}

func PDF(name string) upload.File {
	return upload.File{Filename: name, ContentType: upload.ContentTypePDF, Data: PDFBytes}
}

func JPEG(name string) upload.File {
	return upload.File{Filename: name, ContentType: upload.ContentTypeJPEG, Data: JPEGBytes}
}

// Clock is a settable fake clock.
type Clock struct {
	Now time.Time
}

func (c *Clock) Func() func() time.Time {
	return func() time.Time { return c.Now }
}

func (c *Clock) Advance(d time.Duration) { c.Now = c.Now.Add(d) }
