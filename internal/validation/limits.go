package validation

const (
	MaxProductNameLength        = 200
	MaxProductDescriptionLength = 2000
	MaxPrice                    = 1_000_000
	MaxStock                    = 1_000_000
	MaxImageURLLength           = 500

	MinCategoryNameLength        = 2
	MaxCategoryNameLength        = 100
	MinSlugLength                = 2
	MaxSlugLength                = 100
	MaxCategoryDescriptionLength = 500

	MaxEmailLength          = 100
	MinPersonNameLength     = 2
	MaxPersonNameLength     = 50
	MinPasswordLength       = 6
	MaxPasswordLength       = 100
	// bcrypt rejects longer input.
	MaxPasswordBytes        = 72
	MaxInvitationCodeLength = 100
)
