// Package tickets renders the printable PDF artifact for a confirmed
// booking, with a QR code carrying the booking identity for door scans.
package tickets

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/usetix/tix/internal/domain"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

type qrPayload struct {
	BookingID string `json:"bookingId"`
	Reference string `json:"reference"`
	EventID   string `json:"eventId"`
}

// Render produces a single-page A4 ticket. The caller has already
// verified ownership and confirmed status.
func (r *Renderer) Render(detail domain.BookingDetail) ([]byte, error) {
	payload, err := json.Marshal(qrPayload{
		BookingID: detail.ID.String(),
		Reference: detail.Reference,
		EventID:   detail.EventID.String(),
	})
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ticket "+detail.Reference, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, detail.Event.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(90, 90, 90)
	when := detail.Event.StartDate.Format("Mon, 2 Jan 2006 15:04 MST")
	pdf.CellFormat(0, 7, when, "", 1, "L", false, 0, "")
	where := detail.Event.Location
	if detail.Event.IsVirtual {
		where = "Online event"
	}
	pdf.CellFormat(0, 7, where, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, detail.TicketType.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Quantity: %d", detail.Quantity), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Total: $%s", detail.TotalAmount.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Attendee: "+detail.AttendeeName, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Reference: "+detail.Reference, "", 1, "L", false, 0, "")

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr-"+detail.Reference, opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr-"+detail.Reference, 150, 20, 45, 45, false, opts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Present this ticket at the entrance. The QR code admits the listed quantity once.", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
