package pdf

import (
	"context"
	"errors"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

// ReceiptData is a preformatted confirmed payment. Amounts arrive as display
// strings so the renderer stays free of money formatting rules.
type ReceiptData struct {
	ReceiptNumber string
	ConfirmedAt   string
	ResellerName  string
	CustomerName  string
	PackageName   string
	PricePerWeek  string
	Tenor         int
	Weeks         string
	PaymentMethod string
	BankName      string
	Amount        string

	TotalAmount     string
	ConfirmedAmount string
	RemainingAmount string
	Progress        string
}

type Renderer interface {
	RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type MarotoRenderer struct{}

func New() Renderer {
	return &MarotoRenderer{}
}

func (r *MarotoRenderer) RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	if data.ReceiptNumber == "" {
		return nil, errors.New("receipt number is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Halaman {current} dari {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Bukti Pembayaran", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "No. "+data.ReceiptNumber, props.Text{
			Size:  9,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Pelanggan", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(data.CustomerName, props.Text{Top: 5, Size: 9}),
			text.New("Reseller: "+data.ResellerName, props.Text{Top: 12, Size: 9}),
		),
		col.New(6).Add(
			text.New("Dikonfirmasi", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.New(data.ConfirmedAt, props.Text{Top: 5, Size: 9, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Paket", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Minggu", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Per minggu", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Jumlah", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(6, data.PackageName, props.Text{Size: 9}),
		text.NewCol(2, data.Weeks, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.PricePerWeek, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	method := data.PaymentMethod
	if data.BankName != "" {
		method += " (" + data.BankName + ")"
	}
	m.AddRow(10, text.NewCol(12, "Metode pembayaran: "+method, props.Text{Size: 9}))

	for _, line := range [][2]string{
		{"Total kontrak", data.TotalAmount},
		{"Sudah dibayar", data.ConfirmedAmount},
		{"Sisa", data.RemainingAmount},
		{"Progres", data.Progress},
	} {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, line[0], props.Text{Size: 9}),
			text.NewCol(2, line[1], props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
