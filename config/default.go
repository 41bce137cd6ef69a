package config

// DefaultConfigYAML 嵌入的默认配置
// 生产部署请通过外部配置文件或环境变量覆盖 jwt.secret 和预置密码。
var DefaultConfigYAML = []byte(`server:
  port: ":8080"
  mode: "debug"

database:
  path: "expensetracker.db"

jwt:
  secret: "expense-tracker-dev-secret"
  expire_hours: 24

access:
  partner_users:
    - "partner"
    - "user1"

seed:
  enabled: true
  users:
    - username: "sana"
      full_name: "Sudhakar"
      password: "admin@123$"
      is_admin: true
    - username: "harsi"
      full_name: "Harshitha"
      password: "admin@123$"
    - username: "pandu"
      full_name: "swetha"
      password: "admin@123$"
`)
