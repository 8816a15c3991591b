package events

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"capture/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

func (a *API) joinURL(eventID string) string {
	return fmt.Sprintf("%s/join/%s", a.baseURL, eventID)
}

// EventQR handles GET /api/events/event/:eventid/qr. Guests scan the code
// to join the event.
func (a *API) EventQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	if _, err := a.gw.Get(r.Context(), eventID); err != nil {
		respondGatewayError(w, err)
		return
	}

	png, err := qrcode.Encode(a.joinURL(eventID), qrcode.Medium, qrSize)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// EventCard handles GET /api/events/event/:eventid/card: a printable A5
// table card with the event's headline, call to action, and join QR code.
func (a *API) EventCard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	event, err := a.gw.Get(r.Context(), eventID)
	if err != nil {
		respondGatewayError(w, err)
		return
	}

	png, err := qrcode.Encode(a.joinURL(eventID), qrcode.Medium, qrSize)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 16, event.Title, "", 1, "C", false, 0, "")

	if event.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 14)
		pdf.CellFormat(0, 10, event.Subtitle, "", 1, "C", false, 0, "")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("join-qr", opts, bytes.NewReader(png))
	pageW, _ := pdf.GetPageSize()
	const qrMM = 60.0
	pdf.ImageOptions("join-qr", (pageW-qrMM)/2, pdf.GetY()+8, qrMM, qrMM, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrMM + 16)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, event.ButtonText, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 8, "Scan to join "+event.EventName, "", 1, "C", false, 0, "")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", eventID+"-card.pdf"))
	if err := pdf.Output(w); err != nil {
		log.Printf("Error writing event card PDF: %v", err)
	}
}
