package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

// 房间 ID 是纯路由键，不是持久化实体。四种形式：
//
//	project:<projectId>   项目聊天房间
//	global                全站聊天房间
//	dm:<a>:<b>            两人私聊房间 (用户 ID 升序)
//	document:<projectId>  项目文档协作房间
const GlobalRoomID = "global"

// ProjectRoomID 构造项目房间的路由键。
func ProjectRoomID(projectID uint) string {
	return fmt.Sprintf("project:%d", projectID)
}

// DMRoomID 构造私聊房间的路由键。参与者顺序无关：ID 小的在前。
func DMRoomID(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm:%d:%d", a, b)
}

// DocumentRoomID 构造文档房间的路由键。
func DocumentRoomID(projectID uint) string {
	return fmt.Sprintf("document:%d", projectID)
}

// parseProjectRoom 从 project:/document: 路由键中取出项目 ID。
// 第二个返回值表示键是否属于该前缀。
func parseProjectRoom(roomID, prefix string) (uint, bool) {
	rest, ok := strings.CutPrefix(roomID, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
