package opinion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// numString acepta tanto "0.52" como 0.52 en el JSON y conserva el texto
// original. Opinion mezcla ambos formatos según el endpoint.
type numString string

func (n *numString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("numString: %w", err)
	}
	*n = numString(num.String())
	return nil
}

// flexID acepta un id numérico o string ("42" / 42).
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s numString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return fmt.Errorf("flexID %q: %w", s, err)
	}
	*f = flexID(v)
	return nil
}

// listResult es el result de los endpoints paginados.
type listResult[T any] struct {
	Total int `json:"total"`
	List  []T `json:"list"`
}

// dataResult es el result de los endpoints de un solo objeto.
type dataResult[T any] struct {
	Data T `json:"data"`
}

type marketDTO struct {
	MarketID    flexID    `json:"market_id"`
	MarketTitle string    `json:"market_title"`
	Status      int       `json:"status"`
	YesTokenID  string    `json:"yes_token_id"`
	NoTokenID   string    `json:"no_token_id"`
	Volume      numString `json:"volume"`
	QuoteToken  string    `json:"quoteToken"`
}

type levelDTO struct {
	Price numString `json:"price"`
	Size  numString `json:"size"`
}

type orderbookDTO struct {
	TokenID string     `json:"token_id"`
	Bids    []levelDTO `json:"bids"`
	Asks    []levelDTO `json:"asks"`
}

type positionDTO struct {
	MarketID    flexID    `json:"market_id"`
	TokenID     string    `json:"token_id"`
	OutcomeSide string    `json:"outcome_side_enum"`
	SharesOwned numString `json:"shares_owned"`
	AvgPrice    numString `json:"avg_price"`
}

type orderDTO struct {
	OrderID     string    `json:"order_id"`
	MarketID    flexID    `json:"market_id"`
	TokenID     string    `json:"token_id"`
	Side        string    `json:"side"`
	Price       numString `json:"price"`
	MakerAmount numString `json:"maker_amount"`
}

type balanceDTO struct {
	QuoteToken       string    `json:"quote_token"`
	TotalBalance     numString `json:"total_balance"`
	AvailableBalance numString `json:"available_balance"`
}

type balancesDTO struct {
	Balances []balanceDTO `json:"balances"`
}

type placeOrderBody struct {
	MarketID      int64       `json:"marketId"`
	TokenID       string      `json:"tokenId"`
	Side          string      `json:"side"`
	OrderType     string      `json:"orderType"`
	Price         string      `json:"price"`
	AmountInQuote string      `json:"makerAmountInQuoteToken,omitempty"`
	AmountInBase  string      `json:"makerAmountInBaseToken,omitempty"`
	Order         signedOrder `json:"order"`
}

type placedOrderDTO struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type cancelOrderBody struct {
	OrderID string `json:"orderId"`
}
