package catalog

const (
	defaultCurrency       = "USD"
	defaultBundleDiscount = 0.05
	defaultServiceLevel   = "standard"
)

// DefaultSteps is the wizard sequence used when a catalog names none.
func DefaultSteps() []Step {
	return []Step{
		{ID: "services", Label: "Services", Number: 1, Microcopy: []string{
			"Bundle & Save: multi-service selections automatically trigger partnership discounts.",
			"Start with the services that unlock revenue fastest. You can fine-tune details next.",
		}},
		{ID: "scope", Label: "Scope", Number: 2, Microcopy: []string{
			"Applies to all services: your industry and scale shape pricing and timeline.",
			"Not sure? Pick the nearest option for now. You can change it before submitting.",
		}},
		{ID: "details", Label: "Details", Number: 3, Microcopy: []string{
			"Configure each service: capabilities, service level, optional add-ons.",
		}},
		{ID: "review", Label: "Review", Number: 4, Microcopy: []string{
			"Review your selections below. You can go back to make changes anytime.",
			"Compare your investment against typical on-shore agency pricing.",
		}},
		{ID: "contact", Label: "Contact", Number: 5, Microcopy: []string{
			"Share your details so we can send your roadmap and next steps.",
			"Want a walkthrough? Toggle the video option and we will record one for your plan.",
		}},
	}
}

// Default returns the built-in agency catalog.
func Default() *Catalog {
	return &Catalog{
		Services: []Service{
			{
				ID:           "new_ghl_setup",
				Name:         "New GHL Setup",
				Description:  "A professional, turnkey foundation in 7 days without the DIY headache.",
				Icon:         "fa-solid fa-rocket",
				Category:     "ghl",
				BasePrice:    Range{Min: 97, Max: 297},
				Recommended:  true,
				Pipeline:     "setup",
				Capabilities: []string{"funnels", "crm", "workflow_automation"},
			},
			{
				ID:           "platform_migration",
				Name:         "Platform Migration",
				Description:  "Move the entire business off five different tools and onto one platform.",
				Icon:         "fa-solid fa-right-left",
				Category:     "ghl",
				BasePrice:    Range{Min: 697, Max: 997},
				Pipeline:     "migration",
				Capabilities: []string{"data_migration", "workflow_transfer"},
			},
			{
				ID:           "fix_optimize",
				Name:         "Fix & Optimize",
				Description:  "Audit of the existing stack and the automation leaks plugged.",
				Icon:         "fa-solid fa-screwdriver-wrench",
				Category:     "ghl",
				BasePrice:    Range{Min: 297, Max: 497},
				Pipeline:     "setup",
				Capabilities: []string{"audit", "optimization", "bug_fixes"},
			},
			{
				ID:           "monthly_management",
				Name:         "Monthly Management",
				Description:  "A dedicated platform expert for less than a part-time assistant.",
				Icon:         "fa-solid fa-calendar-check",
				Category:     "ghl",
				BasePrice:    Range{Min: 127, Max: 997},
				IsMonthly:    true,
				Pipeline:     "monthly_management",
				Capabilities: []string{"campaign_launches", "tech_support", "reporting"},
			},
		},
		Capabilities: []Capability{
			{ID: "funnels", Name: "Funnels & Websites", Icon: "fa-solid fa-layer-group", Price: Fixed(297), PopularBundlePart: true,
				Pitch: "High-converting, mobile-optimized funnels that turn cold traffic into customers."},
			{ID: "crm", Name: "CRM & Pipelines", Icon: "fa-solid fa-users", Price: Fixed(197), PopularBundlePart: true,
				Pitch: "The whole sales journey mapped so you always know who to call and when to close."},
			{ID: "workflow_automation", Name: "Workflow Automation", Icon: "fa-solid fa-gears", Price: Fixed(247), PopularBundlePart: true,
				Pitch: "Automated follow-ups, nurturing and tasks."},
			{ID: "reputation_management", Name: "Reputation Management", Icon: "fa-solid fa-star", Price: Fixed(147),
				Pitch: "Automated review requests that turn happy customers into 5-star ratings."},
			{ID: "social_media_planner", Name: "Social Media Planner", Icon: "fa-solid fa-calendar-days", Price: Fixed(147),
				Pitch: "One dashboard for every social channel."},
			{ID: "calendar", Name: "Calendar System", Icon: "fa-solid fa-calendar-days", Price: Fixed(97),
				Pitch: "An automated booking system that fills your schedule."},
			{ID: "data_migration", Name: "Data Migration", Icon: "fa-solid fa-database"},
			{ID: "workflow_transfer", Name: "Workflow Transfer", Icon: "fa-solid fa-diagram-project"},
			{ID: "audit", Name: "Tech Stack Audit", Icon: "fa-solid fa-magnifying-glass"},
			{ID: "optimization", Name: "Optimization", Icon: "fa-solid fa-gauge-high"},
			{ID: "bug_fixes", Name: "Bug Fixes", Icon: "fa-solid fa-bug"},
			{ID: "campaign_launches", Name: "Campaign Launches", Icon: "fa-solid fa-bullhorn"},
			{ID: "tech_support", Name: "Tech Support", Icon: "fa-solid fa-headset"},
			{ID: "reporting", Name: "Reporting", Icon: "fa-solid fa-chart-pie"},
		},
		Industries: []Industry{
			{ID: "medical_aesthetics", Name: "Medical Aesthetics", Subtitle: "Cosmetic Clinics", Icon: "fa-solid fa-spa", Multiplier: 1.3},
			{ID: "private_healthcare", Name: "Private Healthcare", Subtitle: "Dental • Specialty Healthcare", Icon: "fa-solid fa-stethoscope", Multiplier: 1.3},
			{ID: "home_services", Name: "Home Services", Subtitle: "Roofing • HVAC • Plumbing • Electrical • Pest Control", Icon: "fa-solid fa-toolbox", Multiplier: 1.0},
			{ID: "education_training", Name: "Education & Training", Subtitle: "Private Colleges • Skills Training • Coaching Institutes", Icon: "fa-solid fa-graduation-cap", Multiplier: 1.0},
			{ID: "real_estate", Name: "Real Estate", Subtitle: "Agencies & Teams", Icon: "fa-solid fa-house", Multiplier: 1.0},
			{ID: "automotive_services", Name: "Automotive Services", Subtitle: "Detailing • Repairs • Dealerships", Icon: "fa-solid fa-car-side", Multiplier: 1.0},
			{ID: "professional_services", Name: "Professional Services", Subtitle: "Consultants • Accountants • Agencies", Icon: "fa-solid fa-briefcase", Multiplier: 1.1},
			{ID: "legal_firms", Name: "Legal Firms", Subtitle: "Personal Injury • Immigration • Family Law", Icon: "fa-solid fa-scale-balanced", Multiplier: 1.2},
			{ID: "fitness_training", Name: "Fitness Studios", Subtitle: "Personal Training", Icon: "fa-solid fa-dumbbell", Multiplier: 1.0},
			{ID: "food_catering", Name: "Food & Catering", Subtitle: "Restaurants • Catering Services", Icon: "fa-solid fa-utensils", Multiplier: 1.0},
			{ID: "other", Name: "Others", Icon: "fa-solid fa-shapes", Multiplier: 1.0},
		},
		Scales: []Scale{
			{ID: "solopreneur", Name: "Solopreneur", Description: "Perfect for those starting or staying lean.", Icon: "fa-solid fa-user", Multiplier: 1, Adder: 0},
			{ID: "growing", Name: "Growing Biz", Description: "Built to scale with your increasing lead flow.", Icon: "fa-solid fa-seedling", Multiplier: 1, Adder: 300},
			{ID: "scale", Name: "Scale/Agency", Description: "Infrastructure designed for high-volume stability.", Icon: "fa-solid fa-chart-line", Multiplier: 1, Adder: 700},
			{ID: "enterprise", Name: "Enterprise", Description: "White-glove architecture for massive operations.", Icon: "fa-solid fa-building-columns", Multiplier: 1, Adder: 1500},
		},
		ServiceLevels: []ServiceLevel{
			{ID: "standard", Name: "Standard (DIY Hybrid)", Description: "We build it, you run it.",
				Features: []string{"Basic snapshot install", "Standard timeline"}, Multiplier: 1, Adder: 0},
			{ID: "premium", Name: "Premium (Done-With-You)", Description: "We build it and train your team to be pros.",
				Features: []string{"Full setup", "Priority support", "Training included"}, Multiplier: 1, Adder: 497, Popular: true},
			{ID: "luxury", Name: "Luxury (White Glove)", Description: "We handle every single click.",
				Features: []string{"Custom design", "Advanced automation", "Priority 48h support"}, Multiplier: 1, Adder: 997},
		},
		Addons: []Addon{
			{ID: "rush_delivery", Name: "Rush Delivery (48–72h)", Description: "We clear our schedule to launch your project first.", Icon: "fa-solid fa-bolt", Price: Fixed(300)},
			{ID: "snapshot_creation", Name: "Snapshot Creation", Description: "Package your setup into a deployable asset you can sell.", Icon: "fa-solid fa-box-archive", Price: Fixed(297)},
			{ID: "api_integration", Name: "Custom API/Webhook", Description: "Custom bridges for your data.", Icon: "fa-solid fa-code", Price: Fixed(497)},
			{ID: "zoom_handoff", Name: "Live Zoom Handoff", Description: "1-on-1 walkthrough of the finished build.", Icon: "fa-solid fa-video", Price: Fixed(147)},
			{ID: "hipaa", Name: "Advanced HIPAA Compliance", Description: "Configured for strict medical security standards.", Icon: "fa-solid fa-shield-halved", Price: Fixed(497)},
			{ID: "ab_testing", Name: "A/B Split Testing Setup", Description: "Find the design that brings in the most leads.", Icon: "fa-solid fa-flask", Price: Fixed(197)},
			{ID: "custom_css", Name: "Custom CSS/Branding", Description: "A bespoke brand aesthetic.", Icon: "fa-solid fa-paintbrush", Price: Fixed(247)},
			{ID: "email_audit", Name: "Email Deliverability Audit", Description: "Make sure your emails land in the inbox.", Icon: "fa-solid fa-envelope-open-text", Price: Fixed(197)},
		},
		Bundles: []Bundle{
			{ID: "authority_bundle", Name: "The Authority Bundle",
				Included:    []string{"reputation_management", "social_media_planner", "custom_css"},
				BundlePrice: 447, Savings: 94,
				Pitch: "Everything you need to look like the market leader and dominate local search."},
			{ID: "scale_safety_bundle", Name: "The Scale & Safety Bundle",
				Included:    []string{"api_integration", "snapshot_creation", "hipaa"},
				BundlePrice: 997, Savings: 294,
				Pitch: "Built for high-volume agencies and healthcare providers needing enterprise-grade security."},
			{ID: "performance_pro", Name: "The Performance Pro",
				Included:    []string{"ab_testing", "email_audit", "zoom_handoff"},
				BundlePrice: 447, Savings: 94,
				Pitch: "We ensure emails hit the inbox and funnels convert."},
		},
		Steps: DefaultSteps(),
		Rules: PricingRules{
			Currency:         defaultCurrency,
			BundleDiscount:   defaultBundleDiscount,
			AnchorMultiplier: 1.6,
			AnchorRangeAdder: Range{Min: 340, Max: 525},
			IncludedCapabilities: map[string][]string{
				"new_ghl_setup":      {"funnels", "crm", "workflow_automation"},
				"platform_migration": {"data_migration", "workflow_transfer"},
				"fix_optimize":       {"audit", "optimization", "bug_fixes"},
				"monthly_management": {"campaign_launches", "tech_support", "reporting"},
			},
		},
		PipelinePriority:    []string{"monthly_management", "migration", "setup"},
		DefaultServiceLevel: defaultServiceLevel,
	}
}
