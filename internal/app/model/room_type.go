package model

// Room types a cleaning record can be filed under
const (
	RoomToilet    = "トイレ"
	RoomWashbasin = "洗面台"
	RoomLaundry   = "洗濯機"
	RoomBath      = "お風呂"
	RoomKitchen   = "キッチン"
	RoomBed       = "ベッド"
	RoomLiving    = "リビング"
	RoomOther     = "その他"
	RoomSpecial   = "特別清掃"
)

// RoomTypes lists every room type in display order
var RoomTypes = []string{
	RoomToilet,
	RoomWashbasin,
	RoomLaundry,
	RoomBath,
	RoomKitchen,
	RoomBed,
	RoomLiving,
	RoomOther,
	RoomSpecial,
}

func IsValidRoomType(roomType string) bool {
	for _, r := range RoomTypes {
		if r == roomType {
			return true
		}
	}
	return false
}

type BeforeAfter string

const (
	Before BeforeAfter = "before"
	After  BeforeAfter = "after"
)

func (b BeforeAfter) IsValid() bool {
	return b == Before || b == After
}
