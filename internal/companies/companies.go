// Package companies maps NSE company names to tickers and Kite instrument
// tokens, and expands the nifty50 preset.
package companies

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// PresetNifty50 expands to every company in the registry's preset list
const PresetNifty50 = "nifty50"

type company struct {
	Name   string
	Ticker string
}

// nifty50 is kept in index order; it is also the default preset
var nifty50 = []company{
	{"Reliance Industries", "RELIANCE.NS"},
	{"Tata Consultancy Services", "TCS.NS"},
	{"Infosys", "INFY.NS"},
	{"HDFC Bank", "HDFCBANK.NS"},
	{"ICICI Bank", "ICICIBANK.NS"},
	{"Hindustan Unilever", "HINDUNILVR.NS"},
	{"State Bank of India", "SBIN.NS"},
	{"Bharti Airtel", "BHARTIARTL.NS"},
	{"Bajaj Finance", "BAJFINANCE.NS"},
	{"ITC Limited", "ITC.NS"},
	{"Kotak Mahindra Bank", "KOTAKBANK.NS"},
	{"Larsen & Toubro", "LT.NS"},
	{"Axis Bank", "AXISBANK.NS"},
	{"Asian Paints", "ASIANPAINT.NS"},
	{"Maruti Suzuki", "MARUTI.NS"},
	{"Sun Pharmaceutical", "SUNPHARMA.NS"},
	{"Titan Company", "TITAN.NS"},
	{"UltraTech Cement", "ULTRACEMCO.NS"},
	{"Wipro", "WIPRO.NS"},
	{"Power Grid Corporation", "POWERGRID.NS"},
	{"ONGC", "ONGC.NS"},
	{"Adani Enterprises", "ADANIENT.NS"},
	{"Adani Ports", "ADANIPORTS.NS"},
	{"Apollo Hospitals", "APOLLOHOSP.NS"},
	{"Bajaj Auto", "BAJAJ-AUTO.NS"},
	{"Bajaj Finserv", "BAJAJFINSV.NS"},
	{"Bharat Petroleum", "BPCL.NS"},
	{"Britannia Industries", "BRITANNIA.NS"},
	{"Cipla", "CIPLA.NS"},
	{"Coal India", "COALINDIA.NS"},
	{"Divi's Laboratories", "DIVISLAB.NS"},
	{"Dr Reddy's Laboratories", "DRREDDY.NS"},
	{"Eicher Motors", "EICHERMOT.NS"},
	{"Grasim Industries", "GRASIM.NS"},
	{"HCL Technologies", "HCLTECH.NS"},
	{"HDFC Life Insurance", "HDFCLIFE.NS"},
	{"Hero MotoCorp", "HEROMOTOCO.NS"},
	{"Hindalco Industries", "HINDALCO.NS"},
	{"IndusInd Bank", "INDUSINDBK.NS"},
	{"JSW Steel", "JSWSTEEL.NS"},
	{"LTIMindtree", "LTIM.NS"},
	{"Mahindra & Mahindra", "M&M.NS"},
	{"Nestle India", "NESTLEIND.NS"},
	{"NTPC", "NTPC.NS"},
	{"SBI Life Insurance", "SBILIFE.NS"},
	{"Tata Consumer Products", "TATACONSUM.NS"},
	{"Tata Motors", "TATAMOTORS.NS"},
	{"Tata Steel", "TATASTEEL.NS"},
	{"Tech Mahindra", "TECHM.NS"},
	{"Trent", "TRENT.NS"},
}

// Placeholder NSE instrument tokens for Kite. Refresh from the instruments
// dump before relying on them for anything but the common names.
var kiteTokens = map[string]uint32{
	"RELIANCE":   256265,
	"TCS":        2953217,
	"HDFCBANK":   341249,
	"INFY":       408065,
	"HCLTECH":    1850625,
	"LT":         2939649,
	"SBIN":       779521,
	"ICICIBANK":  1270529,
	"AXISBANK":   1510401,
	"KOTAKBANK":  492033,
	"ITC":        424961,
	"TATAMOTORS": 884737,
	"TITAN":      897537,
	"JSWSTEEL":   3001089,
	"ULTRACEMCO": 2952193,
	"BAJFINANCE": 81153,
	"HDFCLIFE":   119553,
	"BHARTIARTL": 2714625,
	"ASIANPAINT": 60417,
	"MARUTI":     2815745,
}

// Registry resolves CLI company arguments
type Registry struct {
	nameToTicker map[string]string
	tickerToName map[string]string
	preset       []string
}

// Default returns the built-in registry
func Default() *Registry {
	r := &Registry{
		nameToTicker: make(map[string]string, len(nifty50)),
		tickerToName: make(map[string]string, len(nifty50)),
	}
	for _, c := range nifty50 {
		r.nameToTicker[c.Name] = c.Ticker
		r.tickerToName[c.Ticker] = c.Name
		r.preset = append(r.preset, c.Name)
	}
	return r
}

// LoadFile replaces the preset with the tickers listed in a JSON array file,
// converting each to a company name. A missing file keeps the built-in
// preset and returns nil.
func (r *Registry) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read companies file: %w", err)
	}

	var tickers []string
	if err := json.Unmarshal(data, &tickers); err != nil {
		return fmt.Errorf("failed to parse companies file %s: %w", path, err)
	}

	preset := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.TrimSpace(t); t != "" {
			preset = append(preset, r.Name(t))
		}
	}
	r.preset = preset
	return nil
}

// Preset returns the nifty50 names in order
func (r *Registry) Preset() []string {
	out := make([]string, len(r.preset))
	copy(out, r.preset)
	return out
}

// Resolve expands a comma separated list or the nifty50 preset into company
// names. Known tickers are converted to names for news search.
func (r *Registry) Resolve(arg string) []string {
	if strings.EqualFold(strings.TrimSpace(arg), PresetNifty50) {
		return r.Preset()
	}

	var names []string
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			if arg != "" {
				names = append(names, part)
			}
			continue
		}
		if _, ok := r.tickerToName[strings.ToUpper(part)]; ok {
			part = r.Name(part)
		}
		names = append(names, part)
	}
	return names
}

// Name converts a ticker to a company name. Unknown tickers lose their
// exchange suffix.
func (r *Registry) Name(ticker string) string {
	if name, ok := r.tickerToName[strings.ToUpper(ticker)]; ok {
		return name
	}
	return strings.TrimSuffix(ticker, ".NS")
}

// Ticker converts a company name to its Yahoo ticker. Unknown names are
// returned unchanged.
func (r *Registry) Ticker(name string) string {
	if t, ok := r.nameToTicker[name]; ok {
		return t
	}
	return name
}

// KiteTokens returns the symbol to instrument token table
func KiteTokens() map[string]uint32 {
	out := make(map[string]uint32, len(kiteTokens))
	for k, v := range kiteTokens {
		out[k] = v
	}
	return out
}
