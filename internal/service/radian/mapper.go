package radian

import (
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/edipo"
)

func toEdiResult(r edipo.Result) radian.EdiResult {
	return radian.EdiResult{
		IsValid:                   r.IsValid,
		IsRestored:                r.IsRestored,
		Algorithm:                 r.Algorithm,
		Class:                     r.Class,
		Number:                    r.Number,
		UUID:                      r.UUID,
		IssueDate:                 r.IssueDate,
		ExpeditionDate:            r.ExpeditionDate,
		ZipKey:                    r.ZipKey,
		StatusCode:                r.StatusCode,
		StatusDescription:         r.StatusDescription,
		StatusMessage:             r.StatusMessage,
		ErrorsMessages:            r.ErrorsMessages,
		XMLName:                   r.XMLName,
		ZipName:                   r.ZipName,
		Signature:                 r.Signature,
		QRCode:                    r.QRCode,
		QRData:                    r.QRData,
		QRLink:                    r.QRLink,
		PDFDownloadLink:           r.PDFDownloadLink,
		XMLBase64:                 r.XMLBase64,
		ApplicationResponseBase64: r.ApplicationResponseBase64,
		AttachedDocumentBase64:    r.AttachedDocumentBase64,
		PDFBase64:                 r.PDFBase64,
		ZipBase64:                 r.ZipBase64,
		TypeEnvironmentID:         r.TypeEnvironmentID,
	}
}

func toEventResponse(e radian.Event) radian.EventResponse {
	edi := radian.EdiResultResponse{
		IsValid:                   e.Edi.IsValid,
		IsRestored:                e.Edi.IsRestored,
		Algorithm:                 e.Edi.Algorithm,
		Class:                     e.Edi.Class,
		Number:                    e.Edi.Number,
		UUID:                      e.Edi.UUID,
		IssueDate:                 e.Edi.IssueDate,
		ExpeditionDate:            e.Edi.ExpeditionDate,
		ZipKey:                    e.Edi.ZipKey,
		StatusCode:                e.Edi.StatusCode,
		StatusDescription:         e.Edi.StatusDescription,
		StatusMessage:             e.Edi.StatusMessage,
		ErrorsMessages:            e.Edi.ErrorsMessages,
		XMLName:                   e.Edi.XMLName,
		ZipName:                   e.Edi.ZipName,
		Signature:                 e.Edi.Signature,
		QRCode:                    e.Edi.QRCode,
		QRData:                    e.Edi.QRData,
		QRLink:                    e.Edi.QRLink,
		PDFDownloadLink:           e.Edi.PDFDownloadLink,
		XMLBase64:                 e.Edi.XMLBase64,
		ApplicationResponseBase64: e.Edi.ApplicationResponseBase64,
		AttachedDocumentBase64:    e.Edi.AttachedDocumentBase64,
		PDFBase64:                 e.Edi.PDFBase64,
		ZipBase64:                 e.Edi.ZipBase64,
		TypeEnvironmentID:         e.Edi.TypeEnvironmentID,
	}

	resp := radian.EventResponse{
		ID:                 e.ID,
		CompanyID:          e.CompanyID,
		UserID:             e.UserID,
		Date:               e.Date.Format("2006-01-02"),
		Name:               e.Name,
		Prefix:             e.Prefix,
		Number:             e.Number,
		State:              string(e.State),
		EventTypeID:        e.EventTypeID,
		InvoiceID:          e.InvoiceID,
		RejectionConceptID: e.RejectionConceptID,
		Note:               e.Note,
		EdiSync:            e.EdiSync,
		EdiIsNotTest:       e.EdiIsNotTest,
		EdiPayload:         e.EdiPayload,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
		Edi:                edi,
	}
	if e.EventTypeCode != nil {
		resp.EventTypeCode = *e.EventTypeCode
	}
	if e.EventTypeName != nil {
		resp.EventTypeName = *e.EventTypeName
	}
	if e.InvoiceNumber != nil {
		resp.InvoiceNumber = *e.InvoiceNumber
	}
	return resp
}
