// internal/portal/analyzer.go
package portal

import (
	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

// Analyzer applies the performance gates to list metrics. Thresholds
// carry percent floors compared directly against the percent values
// scraped from the portal.
type Analyzer struct {
	thresholds config.ThresholdsConfig
	serverType string
	logger     utils.Logger
}

// NewAnalyzer creates an analyzer for one server's threshold set.
func NewAnalyzer(thresholds config.ThresholdsConfig, serverType string, logger utils.Logger) *Analyzer {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Analyzer{thresholds: thresholds, serverType: serverType, logger: logger}
}

// Thresholds returns the gates the analyzer runs with.
func (a *Analyzer) Thresholds() config.ThresholdsConfig { return a.thresholds }

// SetThresholds replaces the gates. Not safe to call concurrently with
// the verify or categorize methods.
func (a *Analyzer) SetThresholds(t config.ThresholdsConfig) { a.thresholds = t }

// VerifySingle decides whether a list on a single-queue campaign is
// worth putting (or keeping) in rotation. Unknown lists get the
// benefit of the doubt.
func (a *Analyzer) VerifySingle(listID string, m *ListMetrics) bool {
	if m == nil {
		a.logger.Infof("list %s not found in metrics, OK to try", listID)
		return true
	}

	if m.IsActive && !m.HasLeads {
		a.logger.Infof("list %s is active but has no leads, not suitable", listID)
		return false
	}

	if m.Contacts >= a.thresholds.ContactCount {
		if m.Conversion >= a.thresholds.ConversionRate {
			a.logger.Infof("list %s conversion %.2f%% meets %.2f%% floor", listID, m.Conversion, a.thresholds.ConversionRate)
			return true
		}
		a.logger.Infof("list %s conversion %.2f%% below %.2f%% with %d contacts", listID, m.Conversion, a.thresholds.ConversionRate, m.Contacts)
		return false
	}

	if m.Contacts >= a.thresholds.ContactRateCount && m.ContactRate >= a.thresholds.ContactRate {
		a.logger.Infof("list %s contact rate %.2f%% is healthy, needs more contacts for conversion", listID, m.ContactRate)
		return true
	}

	if !m.IsActive {
		a.logger.Infof("list %s is inactive without proven poor performance, OK to try", listID)
		return true
	}

	return true
}

// VerifyPaired decides whether a list on a fronter/closer pair is
// worth using, based on the fronter-to-closer transfer rate.
func (a *Analyzer) VerifyPaired(listID string, fronter, closer *ListMetrics) bool {
	if fronter == nil {
		fronter = &ListMetrics{ListID: listID}
	}
	if closer == nil {
		closer = &ListMetrics{ListID: listID}
	}

	fronterContacts := fronter.Contacts
	transfers := closer.Contacts
	transferRate := 0.0
	if fronterContacts > 0 {
		transferRate = float64(transfers) / float64(fronterContacts) * 100
	}
	isActive := fronter.IsActive || closer.IsActive

	if isActive && !fronter.HasLeads {
		a.logger.Infof("list %s is active but has no leads, not suitable", listID)
		return false
	}

	if fronterContacts >= a.thresholds.ContactCount {
		if transferRate >= a.thresholds.ConversionRate {
			a.logger.Infof("list %s transfer rate %.2f%% meets %.2f%% floor", listID, transferRate, a.thresholds.ConversionRate)
			return true
		}
		a.logger.Infof("list %s transfer rate %.2f%% below %.2f%% with %d fronter contacts", listID, transferRate, a.thresholds.ConversionRate, fronterContacts)
		return false
	}

	if fronterContacts >= a.thresholds.ContactRateCount && fronter.ContactRate >= a.thresholds.ContactRate {
		a.logger.Infof("list %s contact rate %.2f%% is healthy, needs more contacts for transfer evaluation", listID, fronter.ContactRate)
		return true
	}

	if !isActive {
		a.logger.Infof("list %s is inactive without proven poor performance, OK to try", listID)
		return true
	}

	return true
}

// CategorizeSingle buckets a single-queue campaign's merged metrics.
// Lists flagged needs-reset are left alone; active lists without leads
// go straight to the replacement bucket.
func (a *Analyzer) CategorizeSingle(metrics map[string]*ListMetrics) *Categorized {
	cat := &Categorized{}

	for listID, m := range metrics {
		switch {
		case m.IsActive:
			if m.HasLeads && !m.NeedsReset {
				if m.Conversion >= a.thresholds.ConversionRate {
					cat.Keep = append(cat.Keep, listID)
					continue
				}
				if m.Contacts >= a.thresholds.ContactCount {
					cat.LowConversion = append(cat.LowConversion, listID)
				} else if m.Contacts >= a.thresholds.ContactRateCount {
					if m.ContactRate >= a.thresholds.ContactRate {
						cat.Keep = append(cat.Keep, listID)
					} else {
						cat.LowContact = append(cat.LowContact, listID)
					}
				} else {
					cat.Keep = append(cat.Keep, listID)
				}
			} else if !m.HasLeads && !m.NeedsReset {
				cat.LowConversion = append(cat.LowConversion, listID)
			}

		case m.HasLeads:
			if m.Conversion >= a.thresholds.ConversionRate {
				cat.HighConversion = append(cat.HighConversion, listID)
			} else if m.Contacts >= a.thresholds.ContactRateCount {
				if m.ContactRate >= a.thresholds.ContactRate {
					cat.HighConversion = append(cat.HighConversion, listID)
				} else {
					cat.LowContact = append(cat.LowContact, listID)
				}
			} else {
				cat.LowContact = append(cat.LowContact, listID)
			}
		}
	}

	return cat
}

// CategorizePaired buckets a fronter/closer campaign pair's combined
// metrics by transfer rate.
func (a *Analyzer) CategorizePaired(metrics map[string]*CombinedMetrics) *Categorized {
	cat := &Categorized{}

	for listID, m := range metrics {
		if m.IsActive {
			if m.FronterContacts >= a.thresholds.ContactCount {
				if m.TransferRate < a.thresholds.ConversionRate {
					cat.LowConversion = append(cat.LowConversion, listID)
				} else {
					cat.Keep = append(cat.Keep, listID)
				}
			} else if m.FronterContacts >= a.thresholds.ContactRateCount {
				if m.ContactRate >= a.thresholds.ContactRate {
					cat.Keep = append(cat.Keep, listID)
				} else {
					cat.LowContact = append(cat.LowContact, listID)
				}
			} else {
				cat.Keep = append(cat.Keep, listID)
			}
			continue
		}

		// Inactive lists are only interesting once they have fronter
		// history to judge them by.
		if m.FronterContacts > 0 {
			if m.TransferRate >= a.thresholds.ConversionRate {
				cat.HighConversion = append(cat.HighConversion, listID)
			} else if m.FronterContacts >= a.thresholds.ContactRateCount {
				if m.FronterContacts >= a.thresholds.ContactCount {
					// Enough data to know the transfer rate is poor.
					continue
				}
				if m.ContactRate >= a.thresholds.ContactRate {
					cat.HighConversion = append(cat.HighConversion, listID)
				}
			} else {
				cat.LowContact = append(cat.LowContact, listID)
			}
		}
	}

	return cat
}
