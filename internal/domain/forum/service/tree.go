package service

import "recipe_community/internal/domain/forum/model"

// BuildTree 把按时间排序的扁平列表组装成嵌套结构，子节点保持输入顺序
// 父节点不在列表中的回复作为根节点返回
func BuildTree(posts []model.Post) []*model.PostNode {
	nodes := make(map[string]*model.PostNode, len(posts))
	for i := range posts {
		nodes[posts[i].ID] = &model.PostNode{Post: posts[i], Replies: []*model.PostNode{}}
	}

	roots := make([]*model.PostNode, 0)
	for i := range posts {
		node := nodes[posts[i].ID]
		if pid := posts[i].ParentPostID; pid != nil {
			if parent, ok := nodes[*pid]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
