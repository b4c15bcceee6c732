package crm

import "strings"

// Contact custom field keys written by BuildPayload, without the "contact."
// prefix.
const (
	FieldSelectedServices    = "selected_services"
	FieldBusinessScale       = "business_scale"
	FieldServiceLevel        = "service_level"
	FieldIndustryType        = "industry_type"
	FieldEstimatedInvestment = "estimated_investment"
	FieldBundleDiscount      = "bundle_discount"
	FieldFinalQuoteTotal     = "final_quote_total"
	FieldProjectDescription  = "project_description"
	FieldVideoWalkthrough    = "video_walkthrough"
	FieldFullQuoteJSON       = "full_quote_json"
	FieldEstimateMin         = "estimate_min"
	FieldEstimateMax         = "estimate_max"
	FieldEstimateRange       = "estimate_range"
)

// EstimatorFields are every field the estimator fills in.
var EstimatorFields = []string{
	FieldSelectedServices,
	FieldBusinessScale,
	FieldServiceLevel,
	FieldEstimatedInvestment,
	FieldBundleDiscount,
	FieldFinalQuoteTotal,
	FieldProjectDescription,
	FieldVideoWalkthrough,
	FieldFullQuoteJSON,
	FieldIndustryType,
	FieldEstimateRange,
	FieldEstimateMin,
	FieldEstimateMax,
}

// RangeFields are the fields carrying the estimate range.
var RangeFields = []string{FieldEstimateMin, FieldEstimateMax, FieldEstimateRange}

// NormalizeKey strips the "contact." prefix so "contact.estimate_min" and
// "estimate_min" compare equal.
func NormalizeKey(key string) string {
	return strings.TrimPrefix(key, "contact.")
}

// MatchFields returns the fields whose normalized key is in keys, in the order
// the API listed them, and the wanted keys that were not found.
func MatchFields(fields []CustomField, keys []string) (matches []CustomField, missing []string) {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[NormalizeKey(k)] = true
	}

	found := map[string]bool{}
	matches = []CustomField{}
	for _, f := range fields {
		k := NormalizeKey(f.Key)
		if !wanted[k] {
			continue
		}
		matches = append(matches, f)
		found[k] = true
	}

	missing = []string{}
	for _, k := range keys {
		if !found[NormalizeKey(k)] {
			missing = append(missing, NormalizeKey(k))
		}
	}
	return matches, missing
}

// FieldIDs maps normalized keys to field ids.
func FieldIDs(fields []CustomField) map[string]string {
	ids := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.ID == "" || f.Key == "" {
			continue
		}
		ids[NormalizeKey(f.Key)] = f.ID
	}
	return ids
}
