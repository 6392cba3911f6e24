package models

// Download file names offered by the page.
const (
	CSVFileName   = "stock_data.csv"
	XLSXFileName  = "stock_data.xlsx"
	ChartFileName = "stock_chart.png"
)

// PriceReport holds everything rendered for one request.
type PriceReport struct {
	Company string       `json:"company"`
	Ticker  *Ticker      `json:"ticker"`
	Range   DateRange    `json:"range"`
	Series  *PriceSeries `json:"-"`
	Preview []PriceBar   `json:"preview"`
	Rows    int          `json:"rows"`

	ChartPNG []byte `json:"-"`
	CSV      []byte `json:"-"`
	XLSX     []byte `json:"-"`
}
