package models

// 消费类别常量（固定枚举，带图标前缀，不可改动，否则历史数据无法匹配）
const (
	CategoryFood          = "🍔 Food & Dining"
	CategoryTransport     = "🚗 Transportation"
	CategoryHousing       = "🏠 Housing & Utilities"
	CategoryGroceries     = "🛒 Groceries"
	CategoryHealthcare    = "💊 Healthcare"
	CategoryEntertainment = "🎬 Entertainment"
	CategoryClothing      = "👕 Clothing"
	CategoryEducation     = "📚 Education"
	CategoryGifts         = "🎁 Gifts"
	CategorySavings       = "💰 Savings & Investment"
	CategoryMaintenance   = "🔧 Maintenance"
	CategoryCommunication = "☎️ Communication"
	CategoryTravel        = "✈️ Travel"
	CategoryFitness       = "🏋️ Fitness"
	CategoryTechnology    = "📱 Technology"
)

// GetCategories 获取所有消费类别
func GetCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryHousing,
		CategoryGroceries,
		CategoryHealthcare,
		CategoryEntertainment,
		CategoryClothing,
		CategoryEducation,
		CategoryGifts,
		CategorySavings,
		CategoryMaintenance,
		CategoryCommunication,
		CategoryTravel,
		CategoryFitness,
		CategoryTechnology,
	}
}

// IsValidCategory 校验类别是否在固定枚举内
func IsValidCategory(name string) bool {
	for _, c := range GetCategories() {
		if c == name {
			return true
		}
	}
	return false
}
