package schema

// Default returns the stock personnel-record field list used when no schema
// file exists yet.
func Default() Schema {
	return MustNew(
		Field{Name: "档案编号", Type: TypeSingleLine, Required: true, Unique: true},
		Field{Name: "姓名", Type: TypeSingleLine, Required: true},
		Field{Name: "身份证号", Type: TypeSingleLine, Required: true, Unique: true},
		Field{Name: "身份", Type: TypeSingleLine},
		Field{Name: "籍贯", Type: TypeSingleLine},
		Field{Name: "一级单位", Type: TypeSingleLine},
		Field{Name: "二级单位", Type: TypeSingleLine},
		Field{Name: "出生日期", Type: TypeDate},
		Field{Name: "参加工作时间", Type: TypeDate},
		Field{Name: "入党日期", Type: TypeDate},
		Field{Name: "工作经历", Type: TypeMultiLine},
		Field{Name: "学历", Type: TypeSingleLine},
		Field{Name: "档案流转记录", Type: TypeMultiLine},
		Field{Name: "电子档案", Type: TypeSingleLine},
		Field{Name: "备注", Type: TypeMultiLine},
		Field{Name: "学习经历", Type: TypeMultiLine},
	)
}
